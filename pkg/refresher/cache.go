package refresher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/nexadash/dcx/pkg/datacontext"
)

// cacheRetention bounds how long stale entries survive in Redis. Freshness is
// decided against the entry timestamp, not the Redis expiry, so stale entries
// stay servable when callers allow it.
const cacheRetention = 24 * time.Hour

// CacheEntry is one cached screen context with its commit timestamp
type CacheEntry struct {
	Data datacontext.Context `json:"data"`
	Ts   int64               `json:"ts"`
}

// Age returns how old the entry is
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(time.Unix(e.Ts, 0))
}

// Cache stores screen contexts in Redis keyed by tenant fingerprint and
// screen id. Writes are last-writer-wins.
type Cache struct {
	redis  *redis.Client
	prefix string
}

// NewCache creates a screen context cache
func NewCache(redisClient *redis.Client) *Cache {
	return &Cache{
		redis:  redisClient,
		prefix: "dcx:screen:",
	}
}

// Key composes the cache key for a tenant fingerprint and screen
func (c *Cache) Key(fingerprint, screenID string) string {
	return fmt.Sprintf("%s%s::%s", c.prefix, fingerprint, screenID)
}

// Get retrieves a cached entry; a miss returns (nil, nil)
func (c *Cache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	data, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, err
	}

	var entry CacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, err
	}

	return &entry, nil
}

// Set stores an entry at a key
func (c *Cache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return c.redis.Set(ctx, key, data, cacheRetention).Err()
}

// Clear removes entries for one screen across all tenants, or everything
// under the cache prefix when screenID is empty.
func (c *Cache) Clear(ctx context.Context, screenID string) error {
	pattern := c.prefix + "*"
	if screenID != "" {
		pattern = c.prefix + "*::" + screenID
	}

	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()

	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}

	return iter.Err()
}
