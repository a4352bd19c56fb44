// Package cache provides the key-value cache used for process-wide derived
// state, with a memory and a redis implementation behind one interface.
package cache

import (
	"context"
	"errors"
	"time"
)

// Cache is the minimal contract of a key-value cache. Implementations are
// safe for concurrent use. A zero or negative TTL means no expiration.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// ErrMiss signals that the key is absent or expired
var ErrMiss = errors.New("cache: miss")
