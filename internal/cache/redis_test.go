package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	c, err := NewRedisCache(s.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, s
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, _ := newTestRedis(t)
	ctx := context.Background()

	miss, err := c.GetVector(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, c.SetVector(ctx, "k", []float32{0.5, -1.25, 3}, time.Minute))

	got, err := c.GetVector(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1.25, 3}, got)
}

func TestRedisCacheTTL(t *testing.T) {
	c, s := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.SetVector(ctx, "k", []float32{1}, time.Second))
	assert.True(t, s.Exists(vectorKeyPrefix+"k"))

	s.FastForward(2 * time.Second)

	got, err := c.GetVector(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheCorruptEntry(t *testing.T) {
	c, s := newTestRedis(t)
	require.NoError(t, s.Set(vectorKeyPrefix+"bad", "not-json"))

	_, err := c.GetVector(context.Background(), "bad")
	assert.Error(t, err)
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	_, err := NewRedisCache(addr, "")
	assert.Error(t, err)
}
