package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/erp/treasury/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisStore(t *testing.T) (*RedisIdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisIdempotencyStore(client, "")
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisIdempotencyStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniredisStore(t)

	isNew, err := store.MarkProcessed(ctx, "accredit:abc", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = store.MarkProcessed(ctx, "accredit:abc", time.Hour)
	require.NoError(t, err)
	assert.False(t, isNew)

	assert.True(t, mr.Exists(DefaultKeyPrefix+"accredit:abc"))
	assert.Equal(t, time.Hour, mr.TTL(DefaultKeyPrefix+"accredit:abc"))
}

func TestRedisIdempotencyStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniredisStore(t)

	_, err := store.MarkProcessed(ctx, "k", time.Minute)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	processed, err := store.IsProcessed(ctx, "k")
	require.NoError(t, err)
	assert.False(t, processed)

	isNew, err := store.MarkProcessed(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestRedisIdempotencyStore_Release(t *testing.T) {
	ctx := context.Background()
	store, _ := newMiniredisStore(t)

	_, err := store.MarkProcessed(ctx, "void:1", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "void:1"))

	processed, err := store.IsProcessed(ctx, "void:1")
	require.NoError(t, err)
	assert.False(t, processed)

	assert.NoError(t, store.Release(ctx, "never-claimed"))
}

func TestRedisIdempotencyStore_ServerDown(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniredisStore(t)
	mr.Close()

	_, err := store.MarkProcessed(ctx, "k", time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to mark request key")
}

func redisConfigFor(t *testing.T, mr *miniredis.Miniredis) config.RedisConfig {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return config.RedisConfig{Host: mr.Host(), Port: port}
}

func TestIdempotencyStoreFactory(t *testing.T) {
	ctx := context.Background()

	t.Run("redis backend", func(t *testing.T) {
		mr := miniredis.RunT(t)
		f := NewIdempotencyStoreFactory(redisConfigFor(t, mr), config.IdempotencyConfig{Backend: BackendRedis})

		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &RedisIdempotencyStore{}, store)
	})

	t.Run("memory backend skips redis", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(config.RedisConfig{Host: "127.0.0.1", Port: 1}, config.IdempotencyConfig{Backend: BackendMemory})

		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("unreachable redis falls back", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := redisConfigFor(t, mr)
		mr.Close()

		store, err := NewIdempotencyStoreFactory(cfg, config.IdempotencyConfig{}).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("fallback can be disabled", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := redisConfigFor(t, mr)
		mr.Close()

		_, err := NewIdempotencyStoreFactory(cfg, config.IdempotencyConfig{}, WithInMemoryFallback(false)).CreateStore(ctx)
		require.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewIdempotencyStoreFactory(config.RedisConfig{}, config.IdempotencyConfig{Backend: "memcached"}).CreateStore(ctx)
		require.Error(t, err)
	})
}
