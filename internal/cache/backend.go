// Package cache is the derived-state cache. Values in it are disposable
// projections of the primary store: every read path is correct without it.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Backend.Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value for ttl. Zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Close() error
}

// NoopBackend disables caching: every lookup misses and writes are dropped.
type NoopBackend struct{}

func (NoopBackend) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

func (NoopBackend) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopBackend) Delete(context.Context, ...string) error { return nil }

func (NoopBackend) DeleteByPrefix(context.Context, string) error { return nil }

func (NoopBackend) Close() error { return nil }
