package codes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"arho/internal/plan/store"
	"arho/pkg/platform/circuit"
)

const defaultCacheKey = "arho:codes:v1"

// RedisCache keeps a snapshot of the code registry in Redis so instances
// skip the code table scan on start.
type RedisCache struct {
	client  *redis.Client
	key     string
	ttl     time.Duration
	logger  *slog.Logger
	breaker *circuit.Breaker
}

// CacheOption configures a RedisCache.
type CacheOption func(*RedisCache)

// WithKey overrides the Redis key of the snapshot.
func WithKey(key string) CacheOption {
	return func(c *RedisCache) {
		c.key = key
	}
}

// WithTTL sets the snapshot expiry. Zero keeps it forever.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *RedisCache) {
		c.ttl = ttl
	}
}

// WithLogger sets the logger for cache write failures.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *RedisCache) {
		c.logger = logger
	}
}

// WithBreaker guards Redis reads with b. While b is open Load reads the
// store directly and the write-back acts as the probe.
func WithBreaker(b *circuit.Breaker) CacheOption {
	return func(c *RedisCache) {
		c.breaker = b
	}
}

// NewRedisCache constructs a cache on client.
func NewRedisCache(client *redis.Client, opts ...CacheOption) *RedisCache {
	c := &RedisCache{client: client, key: defaultCacheKey, ttl: time.Hour, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the cached registry. A miss returns false and no error.
func (c *RedisCache) Get(ctx context.Context) (*Registry, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read code cache: %w", err)
	}
	var list []Code
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false, fmt.Errorf("decode code cache: %w", err)
	}
	return NewRegistry(list...), true, nil
}

// Put stores a snapshot of r.
func (c *RedisCache) Put(ctx context.Context, r *Registry) error {
	raw, err := json.Marshal(r.All())
	if err != nil {
		return fmt.Errorf("encode code cache: %w", err)
	}
	return c.client.Set(ctx, c.key, raw, c.ttl).Err()
}

// Invalidate drops the snapshot.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}

// Load returns the cached registry, falling back to the store on a miss or a
// cache error. A registry read from the store is written back.
func (c *RedisCache) Load(ctx context.Context, gw store.Gateway) (*Registry, error) {
	if !c.breakerOpen() {
		r, ok, err := c.Get(ctx)
		c.record(ctx, err)
		if err != nil {
			c.logger.WarnContext(ctx, "code cache unavailable", "error", err)
		}
		if ok {
			return r, nil
		}
	}
	r, err := Load(ctx, gw)
	if err != nil {
		return nil, err
	}
	err = c.Put(ctx, r)
	c.record(ctx, err)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to write code cache", "error", err)
	}
	return r, nil
}

func (c *RedisCache) breakerOpen() bool {
	return c.breaker != nil && c.breaker.IsOpen()
}

func (c *RedisCache) record(ctx context.Context, err error) {
	if c.breaker == nil {
		return
	}
	var change circuit.StateChange
	if err != nil {
		_, change = c.breaker.RecordFailure()
	} else {
		_, change = c.breaker.RecordSuccess()
	}
	switch {
	case change.Opened:
		c.logger.WarnContext(ctx, "code cache circuit opened", "breaker", c.breaker.Name())
	case change.Closed:
		c.logger.InfoContext(ctx, "code cache circuit closed", "breaker", c.breaker.Name())
	}
}
