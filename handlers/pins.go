package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rodroyale/access"
	"rodroyale/geo"
	"rodroyale/models"
	"rodroyale/store"
)

type catchInfo struct {
	Species   string    `json:"species"`
	Weight    float64   `json:"weight"`
	PhotoURL  string    `json:"photo_url"`
	CreatedAt time.Time `json:"created_at"`
}

type ownerInfo struct {
	Username string `json:"username"`
}

type mapPin struct {
	models.Pin
	CatchInfo *catchInfo `json:"catch_info,omitempty"`
	OwnerInfo ownerInfo  `json:"owner_info"`
}

func (h *Handler) CreatePin(c *gin.Context) {
	var input struct {
		CatchID    uint           `json:"catch_id" binding:"required"`
		Location   *locationInput `json:"location" binding:"required"`
		Visibility string         `json:"visibility" binding:"required,oneof=private mutuals public"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindErr(c, err)
		return
	}
	ctx := c.Request.Context()
	me := viewer(c)

	ct, err := h.store.GetCatch(ctx, input.CatchID)
	if err != nil {
		fail(c, err, "create pin")
		return
	}
	if !access.CanModify(me, ct.UserID) {
		forbidden(c, "Cannot pin another user's catch")
		return
	}

	pin := &models.Pin{
		UserID:     me,
		CatchID:    ct.ID,
		Location:   input.Location.model(),
		Visibility: models.Visibility(input.Visibility),
	}
	if err := h.store.CreatePin(ctx, pin); err != nil {
		fail(c, err, "create pin")
		return
	}
	c.JSON(http.StatusCreated, pin)
}

type radiusQuery struct {
	lat, lng, radius float64
	set              bool
}

// parseRadius reads lat, lng and radius. They filter only together.
func parseRadius(c *gin.Context) (radiusQuery, bool) {
	var q radiusQuery
	raw := map[string]string{}
	for _, k := range []string{"lat", "lng", "radius"} {
		if v, ok := c.GetQuery(k); ok && v != "" {
			raw[k] = v
		}
	}
	if len(raw) == 0 {
		return q, true
	}
	if len(raw) != 3 {
		badRequest(c, "lat, lng and radius must be given together")
		return q, false
	}

	var err error
	if q.lat, err = strconv.ParseFloat(raw["lat"], 64); err != nil || q.lat < -90 || q.lat > 90 {
		badRequest(c, "Invalid lat")
		return q, false
	}
	if q.lng, err = strconv.ParseFloat(raw["lng"], 64); err != nil || q.lng < -180 || q.lng > 180 {
		badRequest(c, "Invalid lng")
		return q, false
	}
	if q.radius, err = strconv.ParseFloat(raw["radius"], 64); err != nil || q.radius <= 0 {
		badRequest(c, "Invalid radius")
		return q, false
	}
	q.set = true
	return q, true
}

// ListPins returns every pin the caller may see, optionally within a
// radius. Catch details are attached when the catch still exists.
func (h *Handler) ListPins(c *gin.Context) {
	rq, ok := parseRadius(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	me := viewer(c)

	following, followers := access.NewSet(), access.NewSet()
	if me != access.Anonymous {
		ids, err := h.store.FollowingIDs(ctx, me)
		if err != nil {
			fail(c, err, "get pins")
			return
		}
		following = access.NewSet(ids...)
		if ids, err = h.store.FollowerIDs(ctx, me); err != nil {
			fail(c, err, "get pins")
			return
		}
		followers = access.NewSet(ids...)
	}

	pins, err := h.store.ListPins(ctx)
	if err != nil {
		fail(c, err, "get pins")
		return
	}

	visible := make([]models.Pin, 0, len(pins))
	for _, p := range pins {
		rel := access.RelationOf(me, p.UserID, following, followers)
		if !access.CanViewPin(me, p, rel) {
			continue
		}
		if rq.set && !geo.Within(rq.lat, rq.lng, rq.radius, p.Location.Lat, p.Location.Lng) {
			continue
		}
		visible = append(visible, p)
	}

	catchIDs := make([]uint, 0, len(visible))
	ownerIDs := make([]uint, 0, len(visible))
	for _, p := range visible {
		catchIDs = append(catchIDs, p.CatchID)
		ownerIDs = append(ownerIDs, p.UserID)
	}
	catches, err := h.store.CatchesByIDs(ctx, catchIDs)
	if err != nil {
		fail(c, err, "get pins")
		return
	}
	names, err := h.store.Usernames(ctx, ownerIDs)
	if err != nil {
		fail(c, err, "get pins")
		return
	}

	out := make([]mapPin, 0, len(visible))
	for _, p := range visible {
		mp := mapPin{Pin: p, OwnerInfo: ownerInfo{Username: names[p.UserID]}}
		if ct, ok := catches[p.CatchID]; ok {
			mp.CatchInfo = &catchInfo{
				Species:   ct.Species,
				Weight:    ct.Weight,
				PhotoURL:  ct.PhotoURL,
				CreatedAt: ct.CreatedAt,
			}
		}
		out = append(out, mp)
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) UpdatePin(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Location   *locationInput `json:"location"`
		Visibility *string        `json:"visibility" binding:"omitempty,oneof=private mutuals public"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindErr(c, err)
		return
	}
	ctx := c.Request.Context()

	pin, err := h.store.GetPin(ctx, id)
	if err != nil {
		fail(c, err, "update pin")
		return
	}
	if !access.CanModify(viewer(c), pin.UserID) {
		forbidden(c, "Not authorized to update this pin")
		return
	}

	var upd store.PinUpdate
	if input.Location != nil {
		loc := input.Location.model()
		upd.Location = &loc
	}
	if input.Visibility != nil {
		v := models.Visibility(*input.Visibility)
		upd.Visibility = &v
	}
	if pin, err = h.store.UpdatePin(ctx, id, upd); err != nil {
		fail(c, err, "update pin")
		return
	}
	c.JSON(http.StatusOK, pin)
}

func (h *Handler) DeletePin(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	pin, err := h.store.GetPin(ctx, id)
	if err != nil {
		fail(c, err, "delete pin")
		return
	}
	if !access.CanModify(viewer(c), pin.UserID) {
		forbidden(c, "Not authorized to delete this pin")
		return
	}
	if err := h.store.DeletePin(ctx, id); err != nil {
		fail(c, err, "delete pin")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pin deleted successfully"})
}
