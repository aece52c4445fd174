package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "reports:version"

// HitRecorder counts cache hits and misses.
type HitRecorder interface {
	ReportCache(hit bool)
}

// Cache stores report payloads in redis under a global version. Bumping the
// version orphans every cached entry; TTL cleans them up.
type Cache struct {
	client   *redis.Client
	ttl      time.Duration
	recorder HitRecorder
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration, recorder HitRecorder) *Cache {
	return &Cache{client: client, ttl: ttl, recorder: recorder}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) || (err == nil && ver <= 0) {
		// SetNX keeps a concurrent Bump from being overwritten.
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	return ver, err
}

// BuildKey composes the cache key with the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(append([]string{"reports"}, parts...), ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// Bump invalidates every cached report.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

func (c *Cache) record(hit bool) {
	if c != nil && c.recorder != nil {
		c.recorder.ReportCache(hit)
	}
}

// Fetch returns the cached value under key or populates it using loader.
// Redis failures degrade to calling loader directly.
func Fetch[T any](ctx context.Context, c *Cache, key string, loader func(context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached T
		if jsonErr := json.Unmarshal(payload, &cached); jsonErr == nil {
			c.record(true)
			return cached, nil
		}
	}
	c.record(false)
	value, err := loader(ctx)
	if err != nil {
		return zero, err
	}
	if raw, err := json.Marshal(value); err == nil {
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
	}
	return value, nil
}
