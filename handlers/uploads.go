package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"rodroyale/access"
	"rodroyale/storage"
)

const (
	defaultPresignExpiry = time.Hour
	maxPresignExpiry     = 7 * 24 * time.Hour

	galleryFolder = "Rod Royale/gallery"
)

// uploadFolders are the prefixes clients may upload under.
var uploadFolders = map[string]bool{
	catchFolder:   true,
	galleryFolder: true,
}

func (h *Handler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "Failed to get file")
		return
	}
	folder := strings.Trim(c.DefaultQuery("folder", catchFolder), "/")
	if !uploadFolders[folder] {
		badRequest(c, "Unknown upload folder")
		return
	}

	object, url, ok := h.putImage(c, file, folder, viewer(c))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":      url,
		"object":   object,
		"filename": file.Filename,
		"size":     file.Size,
	})
}

// objectParam reads a catch-all object path and checks the caller owns
// it. It writes the error response itself when it fails.
func objectParam(c *gin.Context) (string, bool) {
	object := strings.TrimPrefix(c.Param("object"), "/")
	if object == "" {
		badRequest(c, "Object name is required")
		return "", false
	}
	owner, ok := storage.OwnerOf(object)
	if !ok || !access.CanModify(viewer(c), owner) {
		forbidden(c, "Not authorized to access this image")
		return "", false
	}
	return object, true
}

func (h *Handler) DeleteImage(c *gin.Context) {
	object, ok := objectParam(c)
	if !ok {
		return
	}
	if err := h.images.Remove(c.Request.Context(), object); err != nil {
		fail(c, err, "delete image")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully", "object": object})
}

// PresignImage hands out a temporary GET URL. expiry is in seconds.
func (h *Handler) PresignImage(c *gin.Context) {
	object, ok := objectParam(c)
	if !ok {
		return
	}
	secs, ok := queryInt(c, "expiry", int(defaultPresignExpiry/time.Second))
	if !ok {
		return
	}
	expiry := time.Duration(secs) * time.Second
	if expiry < time.Minute || expiry > maxPresignExpiry {
		badRequest(c, "expiry must be between 60 and 604800 seconds")
		return
	}

	url, err := h.images.PresignedURL(c.Request.Context(), object, expiry)
	if err != nil {
		fail(c, err, "presign image")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":        url,
		"object":     object,
		"expires_at": h.now().Add(expiry),
	})
}
