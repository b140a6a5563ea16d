package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rodroyale/access"
	"rodroyale/feed"
	"rodroyale/middleware"
	"rodroyale/models"
	"rodroyale/store"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

func (h *Handler) SearchUsers(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		badRequest(c, "Search query is required")
		return
	}
	limit, ok := boundedLimit(c, defaultSearchLimit, maxSearchLimit)
	if !ok {
		return
	}

	users, err := h.store.SearchUsers(c.Request.Context(), q, limit)
	if err != nil {
		fail(c, err, "search users")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := h.store.GetUser(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "get user")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var input struct {
		Username *string `json:"username" binding:"omitempty,min=3,max=50"`
		Email    *string `json:"email" binding:"omitempty,email"`
		Bio      *string `json:"bio" binding:"omitempty,max=500"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindErr(c, err)
		return
	}
	if input.Username != nil {
		v := strings.TrimSpace(*input.Username)
		input.Username = &v
	}
	if input.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*input.Email))
		input.Email = &v
	}
	ctx := c.Request.Context()

	u, err := h.store.UpdateUser(ctx, viewer(c), store.UserUpdate{
		Username: input.Username,
		Email:    input.Email,
		Bio:      input.Bio,
	})
	if err != nil {
		fail(c, err, "update user")
		return
	}
	if input.Username != nil {
		h.bump(ctx)
	}
	c.JSON(http.StatusOK, u)
}

// DeleteMe removes the account and everything it owns. Image removal
// is best-effort: the rows are already gone when it runs.
func (h *Handler) DeleteMe(c *gin.Context) {
	ctx := c.Request.Context()
	id := viewer(c)

	objects, err := h.store.DeleteUser(ctx, id)
	if err != nil {
		fail(c, err, "delete account")
		return
	}
	for _, obj := range objects {
		if err := h.images.Remove(ctx, obj); err != nil {
			slog.Warn("failed to remove image of deleted account", "user_id", id, "object", obj, "error", err)
		}
	}
	if claims := middleware.Claims(c); claims != nil {
		if err := h.cache.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			slog.Warn("failed to revoke token of deleted account", "user_id", id, "error", err)
		}
	}
	h.bump(ctx)

	slog.Info("account deleted", "user_id", id, "images", len(objects))
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListFollowers(c *gin.Context) {
	h.listEdges(c, h.store.ListFollowers, "list followers")
}

func (h *Handler) ListFollowing(c *gin.Context) {
	h.listEdges(c, h.store.ListFollowing, "list following")
}

type edgeLister func(ctx context.Context, id uint, skip, limit int) ([]models.User, error)

func (h *Handler) listEdges(c *gin.Context, list edgeLister, op string) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	page, ok := queryPage(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	exists, err := h.store.UserExists(ctx, id)
	if err != nil {
		fail(c, err, op)
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	users, err := list(ctx, id, page.Skip, page.Limit)
	if err != nil {
		fail(c, err, op)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) Follow(c *gin.Context) {
	target, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.store.Follow(ctx, viewer(c), target); err != nil {
		fail(c, err, "follow user")
		return
	}
	h.bump(ctx)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully followed user"})
}

func (h *Handler) Unfollow(c *gin.Context) {
	target, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.store.Unfollow(ctx, viewer(c), target); err != nil {
		fail(c, err, "unfollow user")
		return
	}
	h.bump(ctx)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully unfollowed user"})
}

// UserCatches lists another user's catches filtered through
// access.CanViewCatch, newest first.
func (h *Handler) UserCatches(c *gin.Context) {
	owner, ok := paramID(c, "id")
	if !ok {
		return
	}
	page, ok := queryPage(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	me := viewer(c)

	exists, err := h.store.UserExists(ctx, owner)
	if err != nil {
		fail(c, err, "get user catches")
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	rel, err := h.store.Relation(ctx, me, owner)
	if err != nil {
		fail(c, err, "get user catches")
		return
	}
	catches, err := h.store.CatchesByUsers(ctx, []uint{owner})
	if err != nil {
		fail(c, err, "get user catches")
		return
	}

	visible := make([]models.Catch, 0, len(catches))
	for _, ct := range catches {
		if access.CanViewCatch(me, ct, rel) {
			visible = append(visible, ct)
		}
	}
	feed.SortNewestFirst(visible)
	c.JSON(http.StatusOK, feed.Apply(visible, page))
}
