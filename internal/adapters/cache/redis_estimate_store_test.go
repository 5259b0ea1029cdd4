package cache

import (
	"context"
	"inspection-route-service/internal/domain"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisEstimateStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisEstimateStore(client, ttl), mr
}

func TestRedisEstimateStore_Miss(t *testing.T) {
	store, _ := newRedisStore(t, 0)

	_, ok, err := store.Get(context.Background(), "14.0000,102.0000|15.0000,102.0000")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisEstimateStore_PutKeepsFirstValue(t *testing.T) {
	store, mr := newRedisStore(t, 0)
	ctx := context.Background()
	key := "14.0000,102.0000|15.0000,102.0000"

	first := domain.TravelEstimate{DistanceKm: 120, DurationMinutes: 95, Source: domain.SourceRouting}
	require.NoError(t, store.Put(ctx, key, first))
	require.NoError(t, store.Put(ctx, key, domain.TravelEstimate{DistanceKm: 1, DurationMinutes: 1, Source: domain.SourceRouting}))

	got, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, got)

	assert.True(t, mr.Exists(redisKeyPrefix+key))
	assert.Zero(t, mr.TTL(redisKeyPrefix+key))
}

func TestRedisEstimateStore_TTL(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", domain.TravelEstimate{DistanceKm: 5, DurationMinutes: 6, Source: domain.SourceRouting}))
	assert.Equal(t, time.Hour, mr.TTL(redisKeyPrefix+"k"))

	mr.FastForward(2 * time.Hour)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisEstimateStore_GetMany(t *testing.T) {
	store, _ := newRedisStore(t, 0)
	ctx := context.Background()

	a := domain.TravelEstimate{DistanceKm: 10, DurationMinutes: 12, Source: domain.SourceRouting}
	b := domain.TravelEstimate{DistanceKm: 20, DurationMinutes: 25, Source: domain.SourceRouting}
	require.NoError(t, store.Put(ctx, "a", a))
	require.NoError(t, store.Put(ctx, "b", b))

	got, err := store.GetMany(ctx, []string{"a", "missing", "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.TravelEstimate{"a": a, "b": b}, got)

	empty, err := store.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRedisEstimateStore_CorruptValue(t *testing.T) {
	store, mr := newRedisStore(t, 0)
	require.NoError(t, mr.Set(redisKeyPrefix+"bad", "not json"))

	_, _, err := store.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis decode estimate")
}
