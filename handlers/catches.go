package handlers

import (
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rodroyale/access"
	"rodroyale/feed"
	"rodroyale/models"
	"rodroyale/storage"
	"rodroyale/store"
)

const catchFolder = "Rod Royale/catches"

func (h *Handler) CreateCatch(c *gin.Context) {
	var input struct {
		Species             string         `json:"species" binding:"required,min=1,max=100"`
		Weight              *float64       `json:"weight" binding:"required,gt=0"`
		PhotoURL            string         `json:"photo_url" binding:"required,url"`
		Location            *locationInput `json:"location" binding:"required"`
		SharedWithFollowers bool           `json:"shared_with_followers"`
		AddToMap            bool           `json:"add_to_map"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindErr(c, err)
		return
	}
	species := strings.TrimSpace(input.Species)
	if species == "" {
		badRequest(c, "Species name is required")
		return
	}
	if !validPhotoURL(input.PhotoURL) {
		badRequest(c, "photo_url must be an http or https URL")
		return
	}

	ct := &models.Catch{
		UserID:              viewer(c),
		Species:             species,
		Weight:              *input.Weight,
		PhotoURL:            input.PhotoURL,
		Location:            input.Location.model(),
		SharedWithFollowers: input.SharedWithFollowers,
		CreatedAt:           h.now(),
	}
	h.saveCatch(c, ct, input.AddToMap)
}

// CreateCatchWithImage uploads the photo and records the catch in one
// request. The image is removed again when the catch cannot be stored.
func (h *Handler) CreateCatchWithImage(c *gin.Context) {
	var input struct {
		File                *multipart.FileHeader `form:"file" binding:"required"`
		Species             string                `form:"species" binding:"required,max=100"`
		Weight              float64               `form:"weight" binding:"required"`
		Lat                 *float64              `form:"lat" binding:"required,min=-90,max=90"`
		Lng                 *float64              `form:"lng" binding:"required,min=-180,max=180"`
		Place               string                `form:"place" binding:"max=200"`
		SharedWithFollowers bool                  `form:"shared_with_followers"`
		AddToMap            bool                  `form:"add_to_map"`
	}
	if err := c.ShouldBind(&input); err != nil {
		bindErr(c, err)
		return
	}
	if input.Weight <= 0 {
		badRequest(c, "Weight must be greater than 0")
		return
	}
	species := strings.TrimSpace(input.Species)
	if species == "" {
		badRequest(c, "Species name is required")
		return
	}

	me := viewer(c)
	object, url, ok := h.putImage(c, input.File, catchFolder, me)
	if !ok {
		return
	}

	ct := &models.Catch{
		UserID:              me,
		Species:             species,
		Weight:              input.Weight,
		PhotoURL:            url,
		PhotoObject:         object,
		Location:            models.Location{Lat: *input.Lat, Lng: *input.Lng, Place: strings.TrimSpace(input.Place)},
		SharedWithFollowers: input.SharedWithFollowers,
		CreatedAt:           h.now(),
	}
	if !h.saveCatch(c, ct, input.AddToMap) {
		if err := h.images.Remove(c.Request.Context(), object); err != nil {
			slog.Warn("failed to clean up orphaned image", "object", object, "error", err)
		}
	}
}

func (h *Handler) saveCatch(c *gin.Context, ct *models.Catch, addToMap bool) bool {
	ctx := c.Request.Context()
	pin, err := h.store.CreateCatch(ctx, ct, addToMap)
	if err != nil {
		fail(c, err, "create catch")
		return false
	}
	h.bump(ctx)

	attrs := []any{"catch_id", ct.ID, "user_id", ct.UserID, "species", ct.Species}
	if pin != nil {
		attrs = append(attrs, "pin_id", pin.ID)
	}
	slog.Info("catch created", attrs...)
	c.JSON(http.StatusCreated, ct)
	return true
}

// Feed is the caller's own catches plus those of everyone they follow.
func (h *Handler) Feed(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	me := viewer(c)

	following, err := h.store.FollowingIDs(ctx, me)
	if err != nil {
		fail(c, err, "get user feed")
		return
	}
	catches, err := h.store.CatchesByUsers(ctx, append([]uint{me}, following...))
	if err != nil {
		fail(c, err, "get user feed")
		return
	}
	c.JSON(http.StatusOK, feed.Compose(me, access.NewSet(following...), catches, page))
}

func (h *Handler) MyCatches(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	catches, err := h.store.CatchesByUsers(c.Request.Context(), []uint{viewer(c)})
	if err != nil {
		fail(c, err, "get your catches")
		return
	}
	feed.SortNewestFirst(catches)
	c.JSON(http.StatusOK, feed.Apply(catches, page))
}

func (h *Handler) GetCatch(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	me := viewer(c)

	ct, err := h.store.GetCatch(ctx, id)
	if err != nil {
		fail(c, err, "get catch")
		return
	}
	rel, err := h.store.Relation(ctx, me, ct.UserID)
	if err != nil {
		fail(c, err, "get catch")
		return
	}
	if !access.CanViewCatch(me, *ct, rel) {
		if me == access.Anonymous {
			forbidden(c, "Access denied - login required")
		} else {
			forbidden(c, "Access denied - not following user")
		}
		return
	}
	c.JSON(http.StatusOK, ct)
}

func (h *Handler) UpdateCatch(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Species             *string        `json:"species" binding:"omitempty,min=1,max=100"`
		Weight              *float64       `json:"weight" binding:"omitempty,gt=0"`
		PhotoURL            *string        `json:"photo_url" binding:"omitempty,url"`
		Location            *locationInput `json:"location"`
		SharedWithFollowers *bool          `json:"shared_with_followers"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindErr(c, err)
		return
	}
	if input.Species != nil {
		v := strings.TrimSpace(*input.Species)
		if v == "" {
			badRequest(c, "Species name is required")
			return
		}
		input.Species = &v
	}
	if input.PhotoURL != nil && !validPhotoURL(*input.PhotoURL) {
		badRequest(c, "photo_url must be an http or https URL")
		return
	}
	ctx := c.Request.Context()

	ct, err := h.store.GetCatch(ctx, id)
	if err != nil {
		fail(c, err, "update catch")
		return
	}
	if !access.CanModify(viewer(c), ct.UserID) {
		forbidden(c, "Not authorized to update this catch")
		return
	}

	upd := store.CatchUpdate{
		Species:             input.Species,
		Weight:              input.Weight,
		PhotoURL:            input.PhotoURL,
		SharedWithFollowers: input.SharedWithFollowers,
	}
	if input.Location != nil {
		loc := input.Location.model()
		upd.Location = &loc
	}
	if upd.Empty() {
		c.JSON(http.StatusOK, ct)
		return
	}

	ct, err = h.store.UpdateCatch(ctx, id, upd)
	if err != nil {
		fail(c, err, "update catch")
		return
	}
	h.bump(ctx)
	c.JSON(http.StatusOK, ct)
}

// DeleteCatch removes the catch with its pin and, when it was uploaded
// here, its photo.
func (h *Handler) DeleteCatch(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	ct, err := h.store.GetCatch(ctx, id)
	if err != nil {
		fail(c, err, "delete catch")
		return
	}
	if !access.CanModify(viewer(c), ct.UserID) {
		forbidden(c, "Not authorized to delete this catch")
		return
	}
	if err := h.store.DeleteCatch(ctx, id); err != nil {
		fail(c, err, "delete catch")
		return
	}
	h.bump(ctx)

	if ct.PhotoObject != "" {
		if err := h.images.Remove(ctx, ct.PhotoObject); err != nil {
			slog.Warn("failed to remove catch image", "catch_id", id, "object", ct.PhotoObject, "error", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Catch deleted successfully"})
}

// putImage validates and stores an uploaded file under the owner's
// prefix. It writes the error response itself when it fails.
func (h *Handler) putImage(c *gin.Context, file *multipart.FileHeader, folder string, owner uint) (string, string, bool) {
	if err := storage.CheckFilename(file.Filename); err != nil {
		fail(c, err, "upload image")
		return "", "", false
	}
	if file.Size > h.cfg.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return "", "", false
	}

	src, err := file.Open()
	if err != nil {
		badRequest(c, "Failed to open file")
		return "", "", false
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	object := storage.ObjectName(folder, owner, file.Filename)
	url, err := h.images.Put(c.Request.Context(), object, src, file.Size, contentType)
	if err != nil {
		fail(c, err, "upload image")
		return "", "", false
	}
	slog.Info("image uploaded", "object", object, "size", file.Size, "user_id", owner)
	return object, url, true
}
