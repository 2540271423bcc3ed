package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, clock *fakeClock) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStoreFromClient(client, DefaultTTL).WithClock(clock.Now), mr
}

func TestRedisStore_PutGet(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	store, mr := newTestRedisStore(t, clock)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "weather:london")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "weather:london", samplePayload("London"), clock.Now()))
	assert.True(t, mr.Exists("weather:london"))
	assert.Equal(t, 31*time.Minute, mr.TTL("weather:london"))

	entry, ok, err := store.Get(ctx, "weather:london")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "London", entry.Payload.City)
	assert.True(t, entry.WrittenAt.Equal(clock.Now()))
	require.NotNil(t, entry.Payload.Pressure)
	assert.Equal(t, 1012.0, *entry.Payload.Pressure)
}

func TestRedisStore_ExpiredEntryIsEvicted(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	store, mr := newTestRedisStore(t, clock)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", samplePayload("London"), clock.Now()))
	clock.Advance(31 * time.Minute)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("k"))
}

func TestRedisStore_ServerExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	store, mr := newTestRedisStore(t, clock)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", samplePayload("London"), clock.Now()))
	mr.FastForward(2 * time.Hour)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_CorruptEntry(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store, mr := newTestRedisStore(t, clock)

	require.NoError(t, mr.Set("k", "not json"))

	_, ok, err := store.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Unreachable(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store, mr := newTestRedisStore(t, clock)
	mr.Close()

	_, _, err := store.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, store.Ping(context.Background()))
}

func TestNewRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(context.Background(), RedisOptions{Addr: mr.Addr()}, DefaultTTL)
	require.NoError(t, err)
	defer store.Close()
	assert.NoError(t, store.Ping(context.Background()))

	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisStore(context.Background(), RedisOptions{Addr: addr}, DefaultTTL)
	assert.Error(t, err)
}

func TestRedisStore_EvictionKeepsConcurrentRefresh(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	store, mr := newTestRedisStore(t, clock)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "weather:london", samplePayload("London"), clock.Now()))
	stale, err := mr.Get("weather:london")
	require.NoError(t, err)

	clock.Advance(31 * time.Minute)

	// a fresh write lands between the expired read and its eviction
	require.NoError(t, store.Put(ctx, "weather:london", samplePayload("London"), clock.Now()))
	require.NoError(t, store.evictIfUnchanged(ctx, "weather:london", []byte(stale)))

	entry, ok, err := store.Get(ctx, "weather:london")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, entry.WrittenAt.Equal(clock.Now()))

	current, err := mr.Get("weather:london")
	require.NoError(t, err)
	require.NoError(t, store.evictIfUnchanged(ctx, "weather:london", []byte(current)))
	assert.False(t, mr.Exists("weather:london"))
}
