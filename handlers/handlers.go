package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"rodroyale/auth"
	"rodroyale/cache"
	"rodroyale/config"
	"rodroyale/feed"
	"rodroyale/leaderboard"
	"rodroyale/middleware"
	"rodroyale/models"
	"rodroyale/storage"
	"rodroyale/store"
)

// ImageStore is the object storage the upload endpoints write to.
type ImageStore interface {
	Put(ctx context.Context, object string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, object string) error
	PresignedURL(ctx context.Context, object string, expiry time.Duration) (string, error)
}

type Handler struct {
	cfg    *config.Config
	store  *store.Store
	cache  *cache.Cache
	images ImageStore
	tokens *auth.Tokens
	now    func() time.Time
}

func New(cfg *config.Config, st *store.Store, c *cache.Cache, images ImageStore, tokens *auth.Tokens) *Handler {
	return &Handler{
		cfg:    cfg,
		store:  st,
		cache:  c,
		images: images,
		tokens: tokens,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock swaps the time source used for created_at and the stats
// window.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	cp := *h
	cp.now = now
	return &cp
}

// fail maps domain errors to status codes. Anything unrecognised is
// logged and reported as a 500.
func fail(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": capitalize(err.Error())})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email or username already exists"})
	case errors.Is(err, store.ErrSelfFollow):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot follow yourself"})
	case errors.Is(err, store.ErrPinExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Pin already exists for this catch"})
	case errors.Is(err, leaderboard.ErrInvalidMetric):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrFileType):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   err.Error(),
			"allowed": storage.AllowedExtensions(),
		})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found or could not be deleted"})
	case errors.Is(err, context.Canceled):
		c.Status(499)
	default:
		slog.Error("request failed", "op", op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + op})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, gin.H{"error": msg})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name+" format")
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an optional integer. Absent means def; garbage is a
// 400.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return n, true
}

// queryPage reads skip and limit. An explicit limit below 1 becomes 1;
// feed.Page treats only the zero value as "not given".
func queryPage(c *gin.Context) (feed.Page, bool) {
	skip, ok := queryInt(c, "skip", 0)
	if !ok {
		return feed.Page{}, false
	}
	limit, ok := queryInt(c, "limit", feed.DefaultLimit)
	if !ok {
		return feed.Page{}, false
	}
	if limit < 1 {
		limit = 1
	}
	return feed.Page{Skip: skip, Limit: limit}.Normalize(), true
}

// boundedLimit clamps the limit query into [1, max].
func boundedLimit(c *gin.Context, def, max int) (int, bool) {
	n, ok := queryInt(c, "limit", def)
	if !ok {
		return 0, false
	}
	if n < 1 {
		n = 1
	}
	if n > max {
		n = max
	}
	return n, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// viewer is the authenticated caller or access.Anonymous.
func viewer(c *gin.Context) uint {
	return middleware.UserID(c)
}

// bump invalidates cached leaderboards after a write. The write already
// succeeded, so a failure is only logged.
func (h *Handler) bump(ctx context.Context) {
	if err := h.cache.Bump(ctx); err != nil {
		slog.Warn("failed to bump leaderboard epoch", "error", err)
	}
}

func validPhotoURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

type locationInput struct {
	Lat   *float64 `json:"lat" binding:"required,min=-90,max=90"`
	Lng   *float64 `json:"lng" binding:"required,min=-180,max=180"`
	Place string   `json:"place" binding:"max=200"`
}

func (l *locationInput) model() models.Location {
	return models.Location{Lat: *l.Lat, Lng: *l.Lng, Place: strings.TrimSpace(l.Place)}
}

func bindErr(c *gin.Context, err error) {
	badRequest(c, "Invalid request: "+err.Error())
}
