package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rodroyale/leaderboard"
	"rodroyale/stats"
)

func newCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, time.Minute), mr
}

func TestEpoch(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	n, err := c.Epoch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, c.Bump(ctx))
	require.NoError(t, c.Bump(ctx))
	n, err = c.Epoch(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestLeaderboardRoundTrip(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	resp := leaderboard.Rank([]leaderboard.Member{
		{UserID: 1, Username: "alice", Stats: stats.UserStats{BiggestCatchMonth: 3}},
	}, leaderboard.BiggestCatchMonth, 1)
	key := LeaderboardKey(0, "global", 1, leaderboard.BiggestCatchMonth, "")

	_, ok, err := c.GetLeaderboard(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetLeaderboard(ctx, key, resp))
	got, ok, err := c.GetLeaderboard(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, resp.TotalUsers, got.TotalUsers)
	require.NotNil(t, got.CurrentUserRank)
	assert.Equal(t, 1, *got.CurrentUserRank)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.GetLeaderboard(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLeaderboardKey_EpochAndSpecies(t *testing.T) {
	a := LeaderboardKey(1, "species", 2, leaderboard.CatchesThisMonth, " Bass")
	b := LeaderboardKey(1, "species", 2, leaderboard.CatchesThisMonth, "bass")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, LeaderboardKey(2, "species", 2, leaderboard.CatchesThisMonth, "bass"))
}

func TestRevoke(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	revoked, err := c.Revoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, c.Revoke(ctx, "abc", time.Now().Add(time.Minute)))
	revoked, err = c.Revoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = c.Revoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, c.Revoke(ctx, "old", time.Now().Add(-time.Minute)))
	revoked, err = c.Revoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestConsume_SingleWinner(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := c.Consume(ctx, "refresh-1", exp)
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())

	revoked, err := c.Revoked(ctx, "refresh-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// a token revoked at logout can no longer be consumed
	require.NoError(t, c.Revoke(ctx, "refresh-2", exp))
	ok, err := c.Consume(ctx, "refresh-2", exp)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConsume_StoreDown(t *testing.T) {
	c, mr := newCache(t)
	mr.Close()

	_, err := c.Consume(context.Background(), "x", time.Now().Add(time.Hour))
	assert.Error(t, err)
}
