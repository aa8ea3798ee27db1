package utils

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	// defaultCacheTTL applies when a caller passes a non-positive ttl.
	defaultCacheTTL = time.Minute

	cacheOpTimeout = 2 * time.Second
)

// Cache stores rendered response payloads. Misses and backend errors look the
// same to callers: the data is simply loaded from the database again.
type Cache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool)
	SetBytes(ctx context.Context, key string, b []byte, ttl time.Duration)
	InvalidateByPrefix(ctx context.Context, prefix string)
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	rc *redis.Client
}

// NewRedisCache wraps an existing client. A nil client yields a NopCache.
func NewRedisCache(rc *redis.Client) Cache {
	if rc == nil {
		return NopCache{}
	}
	return &RedisCache{rc: rc}
}

// GetBytes returns cached bytes for a key.
func (c *RedisCache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	b, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		Sugar.Debugf("cache get miss key=%s err=%v", key, err)
		return nil, false
	}
	return b, true
}

// SetBytes stores bytes with the given TTL.
func (c *RedisCache) SetBytes(ctx context.Context, key string, b []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	if err := c.rc.Set(ctx, key, b, ttl).Err(); err != nil {
		Sugar.Warnf("cache set failed key=%s err=%v", key, err)
	}
}

// InvalidateByPrefix deletes keys that match the given prefix using SCAN.
func (c *RedisCache) InvalidateByPrefix(ctx context.Context, prefix string) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var cursor uint64
	for i := 0; i < 10; i++ { // limit rounds to avoid long loops
		keys, cur, err := c.rc.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			Sugar.Warnf("cache invalidate failed prefix=%s err=%v", prefix, err)
			return
		}
		cursor = cur
		if len(keys) > 0 {
			pipe := c.rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			_, _ = pipe.Exec(ctx)
		}
		if cursor == 0 {
			return
		}
	}
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) GetBytes(context.Context, string) ([]byte, bool)         { return nil, false }
func (NopCache) SetBytes(context.Context, string, []byte, time.Duration) {}
func (NopCache) InvalidateByPrefix(context.Context, string)              {}

// CacheSetJSON marshals v and stores the JSON bytes.
func CacheSetJSON(ctx context.Context, c Cache, key string, v interface{}, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		Sugar.Warnf("cache encode failed key=%s err=%v", key, err)
		return
	}
	c.SetBytes(ctx, key, b, ttl)
}
