package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultSlotCacheTTL = 2 * time.Minute

// SlotCache is a short-lived cache for doctor-less branch slot lists.
// Doctor-specific queries are never cached; their conflict filtering
// must see fresh appointment rows.
type SlotCache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, slots []string) error
}

// RedisSlotCache stores slot lists as JSON arrays with a TTL.
type RedisSlotCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisSlotCache creates a cache over the given client. A zero or
// negative ttl falls back to the default.
func NewRedisSlotCache(client *redis.Client, ttl time.Duration) *RedisSlotCache {
	if client == nil {
		panic("scheduling: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultSlotCacheTTL
	}
	return &RedisSlotCache{redis: client, ttl: ttl}
}

func (c *RedisSlotCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("scheduling: failed to read slot cache: %w", err)
	}
	var slots []string
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, false, fmt.Errorf("scheduling: failed to decode cached slots: %w", err)
	}
	return slots, true, nil
}

func (c *RedisSlotCache) Set(ctx context.Context, key string, slots []string) error {
	data, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("scheduling: failed to marshal slots: %w", err)
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("scheduling: failed to persist slot cache: %w", err)
	}
	return nil
}

// InvalidateBranch drops every cached slot list for a branch. Called
// after opening hours change so stale openings do not linger for the
// whole TTL.
func (c *RedisSlotCache) InvalidateBranch(ctx context.Context, branch string) error {
	iter := c.redis.Scan(ctx, 0, fmt.Sprintf("slots:%s:*", branch), 0).Iterator()
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("scheduling: failed to invalidate slot cache: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scheduling: slot cache scan failed: %w", err)
	}
	return nil
}
