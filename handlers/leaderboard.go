package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"rodroyale/cache"
	"rodroyale/leaderboard"
	"rodroyale/models"
	"rodroyale/stats"
)

const (
	defaultBoardLimit = 10
	maxBoardLimit     = 50
)

type myStats struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	stats.UserStats
}

func (h *Handler) MyStats(c *gin.Context) {
	ctx := c.Request.Context()
	u, err := h.store.GetUser(ctx, viewer(c))
	if err != nil {
		fail(c, err, "get leaderboard stats")
		return
	}
	catches, err := h.store.CatchesByUsers(ctx, []uint{u.ID})
	if err != nil {
		fail(c, err, "get leaderboard stats")
		return
	}

	s := stats.Compute(chronological(catches), h.now())
	s.BestAverageMonth = round2(s.BestAverageMonth)
	s.AllTimeWeight = round2(s.AllTimeWeight)
	c.JSON(http.StatusOK, myStats{UserID: u.ID, Username: u.Username, UserStats: s})
}

// cohortFunc builds a cohort for the viewer at now.
type cohortFunc func(ctx context.Context, me uint, now time.Time) ([]leaderboard.Member, error)

func (h *Handler) FollowingLeaderboard(c *gin.Context) {
	h.serveBoard(c, "following", "", "get following leaderboard", h.followingCohort)
}

func (h *Handler) GlobalLeaderboard(c *gin.Context) {
	h.serveBoard(c, "global", "", "get global leaderboard", func(ctx context.Context, _ uint, now time.Time) ([]leaderboard.Member, error) {
		users, err := h.activeUsers(ctx, now)
		if err != nil {
			return nil, err
		}
		return leaderboard.GlobalCohort(users, now), nil
	})
}

func (h *Handler) SpeciesLeaderboard(c *gin.Context) {
	species := strings.TrimSpace(c.Param("species"))
	if species == "" {
		badRequest(c, "Species is required")
		return
	}
	h.serveBoard(c, "species", species, "get species leaderboard", func(ctx context.Context, _ uint, now time.Time) ([]leaderboard.Member, error) {
		users, err := h.activeUsers(ctx, now)
		if err != nil {
			return nil, err
		}
		return leaderboard.SpeciesCohort(users, species, now), nil
	})
}

// serveBoard ranks the full cohort, caches the ranking under the
// current write epoch and then cuts it to limit. Cache trouble only
// costs a recomputation.
func (h *Handler) serveBoard(c *gin.Context, scope, species, op string, build cohortFunc) {
	metric, err := leaderboard.ParseMetric(c.DefaultQuery("metric", string(leaderboard.BiggestCatchMonth)))
	if err != nil {
		fail(c, err, op)
		return
	}
	limit, ok := boundedLimit(c, defaultBoardLimit, maxBoardLimit)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	me := viewer(c)

	key := ""
	if epoch, err := h.cache.Epoch(ctx); err != nil {
		slog.Warn("leaderboard cache unavailable", "error", err)
	} else {
		key = cache.LeaderboardKey(epoch, scope, me, metric, species)
		if resp, hit, err := h.cache.GetLeaderboard(ctx, key); err != nil {
			slog.Warn("failed to read cached leaderboard", "key", key, "error", err)
		} else if hit {
			// keys fold case, so echo the species as asked this time
			resp.Species = species
			c.JSON(http.StatusOK, display(resp.Top(limit)))
			return
		}
	}

	cohort, err := build(ctx, me, h.now())
	if err != nil {
		fail(c, err, op)
		return
	}
	resp := leaderboard.Rank(cohort, metric, me)
	resp.Species = species

	if key != "" {
		if err := h.cache.SetLeaderboard(ctx, key, resp); err != nil {
			slog.Warn("failed to cache leaderboard", "key", key, "error", err)
		}
	}
	c.JSON(http.StatusOK, display(resp.Top(limit)))
}

// followingCohort is the viewer followed by everyone they follow, in
// follow order.
func (h *Handler) followingCohort(ctx context.Context, me uint, now time.Time) ([]leaderboard.Member, error) {
	following, err := h.store.FollowingIDs(ctx, me)
	if err != nil {
		return nil, err
	}
	users, err := h.loadUsers(ctx, append([]uint{me}, following...))
	if err != nil {
		return nil, err
	}
	return leaderboard.FollowingCohort(users, now), nil
}

func (h *Handler) activeUsers(ctx context.Context, now time.Time) ([]leaderboard.UserCatches, error) {
	ids, err := h.store.ActiveUserIDs(ctx, stats.WindowStart(now))
	if err != nil {
		return nil, err
	}
	return h.loadUsers(ctx, ids)
}

// loadUsers gathers usernames and catches for ids, keeping their order.
// Ids without a user row are dropped.
func (h *Handler) loadUsers(ctx context.Context, ids []uint) ([]leaderboard.UserCatches, error) {
	names, err := h.store.Usernames(ctx, ids)
	if err != nil {
		return nil, err
	}
	catches, err := h.store.CatchesByUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	byUser := make(map[uint][]models.Catch, len(ids))
	for _, ct := range chronological(catches) {
		byUser[ct.UserID] = append(byUser[ct.UserID], ct)
	}

	out := make([]leaderboard.UserCatches, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		name, ok := names[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, leaderboard.UserCatches{UserID: id, Username: name, Catches: byUser[id]})
	}
	return out, nil
}

// chronological reverses the store's newest-first order so the first
// of equal maxima is the earliest catch.
func chronological(catches []models.Catch) []models.Catch {
	out := make([]models.Catch, len(catches))
	for i, ct := range catches {
		out[len(catches)-1-i] = ct
	}
	return out
}

// display rounds averages to two decimals for the response only.
func display(resp leaderboard.Response) leaderboard.Response {
	entries := make([]leaderboard.Entry, len(resp.Leaderboard))
	for i, e := range resp.Leaderboard {
		e.BestAverageMonth = round2(e.BestAverageMonth)
		entries[i] = e
	}
	resp.Leaderboard = entries
	if resp.CurrentUserStats != nil {
		cur := *resp.CurrentUserStats
		cur.BestAverageMonth = round2(cur.BestAverageMonth)
		resp.CurrentUserStats = &cur
	}
	return resp
}
