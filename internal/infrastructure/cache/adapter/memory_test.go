package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectsync/internal/infrastructure/cache/port"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "otp:a", "hash", time.Minute))
	require.NoError(t, c.Set(ctx, "sticky", "v", 0))

	got, err := c.Get(ctx, "otp:a")
	require.NoError(t, err)
	assert.Equal(t, "hash", got)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "otp:a")
	assert.ErrorIs(t, err, port.ErrMiss)

	got, err = c.Get(ctx, "sticky")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
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
	assert.ErrorIs(t, err, port.ErrMiss)
}

func TestMemoryCacheHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewMemoryCache()
	assert.Error(t, c.Set(ctx, "a", "1", 0))
	assert.Error(t, c.Ping(ctx))
}
