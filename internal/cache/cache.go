package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/limbo/streakd/internal/metrics"
)

// Cache encodes values as JSON over a Backend. No method returns an error:
// backend failures are logged and turn into misses.
type Cache struct {
	backend Backend
	logger  *slog.Logger
}

func New(backend Backend, logger *slog.Logger) *Cache {
	if backend == nil {
		backend = NoopBackend{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		backend: backend,
		logger:  logger,
	}
}

// Disabled returns a cache that never stores anything.
func Disabled() *Cache {
	return New(NoopBackend{}, nil)
}

// Get decodes the value under key into dst and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	kind := kindOf(key)
	raw, err := c.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			metrics.CacheRequests.WithLabelValues(kind, metrics.CacheError).Inc()
			c.logger.Warn("cache read error", slog.String("key", key), slog.String("error", err.Error()))
		}
		metrics.CacheRequests.WithLabelValues(kind, metrics.CacheMiss).Inc()
		return false
	}
	if err = sonic.Unmarshal(raw, dst); err != nil {
		metrics.CacheRequests.WithLabelValues(kind, metrics.CacheError).Inc()
		c.logger.Warn("cache decode error", slog.String("key", key), slog.String("error", err.Error()))
		c.Delete(ctx, key)
		return false
	}
	metrics.CacheRequests.WithLabelValues(kind, metrics.CacheHit).Inc()
	return true
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := sonic.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode error", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if err = c.backend.Set(ctx, key, raw, ttl); err != nil {
		metrics.CacheRequests.WithLabelValues(kindOf(key), metrics.CacheError).Inc()
		c.logger.Warn("cache write error", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if err := c.backend.Delete(ctx, keys...); err != nil {
		c.logger.Warn("cache delete error", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

func (c *Cache) DeleteByPrefix(ctx context.Context, prefix string) {
	if err := c.backend.DeleteByPrefix(ctx, prefix); err != nil {
		c.logger.Warn("cache prefix delete error", slog.String("prefix", prefix), slog.String("error", err.Error()))
	}
}

// Fetch returns the cached value under key, or calls load and caches its
// result for ttl. Errors from load are returned as is and nothing is cached.
func Fetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	if c.Get(ctx, key, &cached) {
		return cached, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.Set(ctx, key, v, ttl)
	return v, nil
}

func kindOf(key string) string {
	kind, _, _ := strings.Cut(key, ":")
	return kind
}
