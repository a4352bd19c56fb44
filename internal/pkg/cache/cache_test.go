package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, c.Set(ctx, "forever", "x", 0))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	got, err = c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestMemoryCacheDel(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	require.NoError(t, c.Set(ctx, "a", "1", 0))
	require.NoError(t, c.Set(ctx, "b", "2", 0))

	n, err := c.Del(ctx, "a", "b", "missing")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
}

type adminEntry struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func TestTTLCache(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryCache()
	c := NewTTLCache[adminEntry](backend, "identity:admin", time.Minute)

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, adminEntry{ID: "a1", Email: "admin@school.test"}))
	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a1", got.ID)

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTTLCacheCorruptValueIsMiss(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryCache()
	require.NoError(t, backend.Set(ctx, "identity:admin", "{not json", 0))

	c := NewTTLCache[adminEntry](backend, "identity:admin", time.Minute)
	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = backend.Get(ctx, "identity:admin")
	assert.ErrorIs(t, err, ErrMiss)
}
