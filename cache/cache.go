package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"rodroyale/leaderboard"
)

const (
	epochKey      = "leaderboard:epoch"
	revokedPrefix = "auth:revoked:"
)

// Cache holds computed leaderboards and revoked token ids in Redis.
//
// Leaderboard keys embed a write epoch. Every mutation that can change
// a leaderboard bumps the epoch, so stale entries are never read again
// and simply expire.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Cache) Epoch(ctx context.Context) (int64, error) {
	n, err := c.rdb.Get(ctx, epochKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (c *Cache) Bump(ctx context.Context) error {
	return c.rdb.Incr(ctx, epochKey).Err()
}

func LeaderboardKey(epoch int64, scope string, viewer uint, metric leaderboard.Metric, species string) string {
	return fmt.Sprintf("leaderboard:%d:%s:%d:%s:%s", epoch, scope, viewer, metric, strings.ToLower(strings.TrimSpace(species)))
}

func (c *Cache) GetLeaderboard(ctx context.Context, key string) (*leaderboard.Response, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var resp leaderboard.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return &resp, true, nil
}

func (c *Cache) SetLeaderboard(ctx context.Context, key string, resp leaderboard.Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

// Revoke marks a token id unusable until it would have expired anyway.
func (c *Cache) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, revokedPrefix+jti, 1, ttl).Err()
}

// Consume revokes a single-use token id and reports whether this call
// was the one that did it. A false result means the token was already
// spent or revoked.
func (c *Cache) Consume(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	ttl := time.Until(expiresAt)
	if ttl < time.Second {
		ttl = time.Second
	}
	return c.rdb.SetNX(ctx, revokedPrefix+jti, 1, ttl).Result()
}

func (c *Cache) Revoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
