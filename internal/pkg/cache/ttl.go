package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TTLCache stores one JSON encoded value of type T under a fixed key.
// It is built once at startup and handed to the components that share it.
type TTLCache[T any] struct {
	backend Cache
	key     string
	TTL     time.Duration
}

// NewTTLCache creates a typed cache entry on top of backend
func NewTTLCache[T any](backend Cache, key string, ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{backend: backend, key: key, TTL: ttl}
}

// Get returns the cached value and whether it was present
func (c *TTLCache[T]) Get(ctx context.Context) (T, bool, error) {
	var zero T
	raw, err := c.backend.Get(ctx, c.key)
	if errors.Is(err, ErrMiss) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("cache get %s: %w", c.key, err)
	}

	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		// a value written by an older build is treated as a miss
		_, _ = c.backend.Del(ctx, c.key)
		return zero, false, nil
	}
	return value, true, nil
}

// Set stores value for TTL
func (c *TTLCache[T]) Set(ctx context.Context, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", c.key, err)
	}
	if err := c.backend.Set(ctx, c.key, string(raw), c.TTL); err != nil {
		return fmt.Errorf("cache set %s: %w", c.key, err)
	}
	return nil
}

// Invalidate drops the cached value
func (c *TTLCache[T]) Invalidate(ctx context.Context) error {
	if _, err := c.backend.Del(ctx, c.key); err != nil {
		return fmt.Errorf("cache del %s: %w", c.key, err)
	}
	return nil
}
