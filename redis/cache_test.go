package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type entry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCache_GetSet(t *testing.T) {
	mr, client := newTestClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	var got entry
	found, err := cache.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "k", entry{Name: "deck", Count: 3}, time.Minute))
	found, err = cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, entry{Name: "deck", Count: 3}, got)

	mr.FastForward(2 * time.Minute)
	found, err = cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_Versions(t *testing.T) {
	_, client := newTestClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	assert.Equal(t, int64(0), cache.GetVersion(ctx, "v"))
	assert.Equal(t, int64(1), cache.IncrementVersion(ctx, "v"))
	assert.Equal(t, int64(2), cache.IncrementVersion(ctx, "v"))
	assert.Equal(t, int64(2), cache.GetVersion(ctx, "v"))
}

func TestCache_NilClientMisses(t *testing.T) {
	cache := NewCache(nil)
	ctx := context.Background()

	assert.False(t, cache.Enabled())
	require.NoError(t, cache.Set(ctx, "k", entry{Name: "x"}, time.Minute))
	found, err := cache.Get(ctx, "k", &entry{})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, int64(0), cache.IncrementVersion(ctx, "v"))
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := InitRedis(context.Background(), mr.Addr(), zap.NewNop())
	require.NotNil(t, client)
	_ = client.Close()

	mr.Close()
	assert.Nil(t, InitRedis(context.Background(), mr.Addr(), zap.NewNop()))
}
