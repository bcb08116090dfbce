package ratelimit_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekit/gatekit/pkg/ratelimit"
)

// Integration tests against a real Redis. Run with:
//
//	TEST_REDIS_URL=redis://localhost:6379/0 go test ./pkg/ratelimit/
func redisClient(t *testing.T) redis.UniversalClient {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewRedisStore(t *testing.T) {
	t.Parallel()

	_, err := ratelimit.NewRedisStore(nil)
	require.ErrorIs(t, err, ratelimit.ErrStoreRequired)
}

func TestRedisStoreIncrWindow(t *testing.T) {
	store, err := ratelimit.NewRedisStore(redisClient(t))
	require.NoError(t, err)

	ctx := context.Background()
	key := uuid.NewString()

	t.Run("counts up to the limit", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			allowed, count, resetAt, err := store.IncrWindow(ctx, key, 1, 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
			assert.Equal(t, i, count)
			assert.True(t, resetAt.After(time.Now()))
		}
	})

	t.Run("denies past the limit without advancing", func(t *testing.T) {
		allowed, count, _, err := store.IncrWindow(ctx, key, 1, 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, 3, count)
	})

	t.Run("status reflects the counter", func(t *testing.T) {
		count, resetAt, err := store.WindowStatus(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
		assert.True(t, resetAt.After(time.Now()))
	})

	t.Run("delete resets", func(t *testing.T) {
		require.NoError(t, store.DeleteCounter(ctx, key))

		allowed, count, _, err := store.IncrWindow(ctx, key, 1, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 1, count)
	})
}

func TestRedisStoreAppendLog(t *testing.T) {
	store, err := ratelimit.NewRedisStore(redisClient(t))
	require.NoError(t, err)

	ctx := context.Background()
	key := uuid.NewString()

	t.Run("admits up to the limit and reports the oldest entry", func(t *testing.T) {
		first := time.Now()
		allowed, count, oldest, err := store.AppendLog(ctx, key, first, time.Minute, 2, 1)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 1, count)
		assert.WithinDuration(t, first, oldest, 2*time.Millisecond)

		allowed, count, _, err = store.AppendLog(ctx, key, time.Now(), time.Minute, 2, 1)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 2, count)

		allowed, count, oldest, err = store.AppendLog(ctx, key, time.Now(), time.Minute, 2, 1)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, 2, count)
		assert.WithinDuration(t, first, oldest, 2*time.Millisecond)
	})

	t.Run("old entries age out", func(t *testing.T) {
		future := time.Now().Add(2 * time.Minute)
		allowed, count, _, err := store.AppendLog(ctx, key, future, time.Minute, 2, 1)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 1, count)
	})

	t.Run("delete resets", func(t *testing.T) {
		require.NoError(t, store.DeleteLog(ctx, key))

		count, _, err := store.LogStatus(ctx, key, time.Now(), time.Minute)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestRedisStoreTakeTokens(t *testing.T) {
	store, err := ratelimit.NewRedisStore(redisClient(t))
	require.NoError(t, err)

	ctx := context.Background()
	key := uuid.NewString()

	t.Run("new bucket starts full", func(t *testing.T) {
		allowed, tokens, err := store.TakeTokens(ctx, key, 3, 5, 1)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.InDelta(t, 2, tokens, 0.1)
	})

	t.Run("deficit denies without draining", func(t *testing.T) {
		allowed, tokens, err := store.TakeTokens(ctx, key, 5, 5, 1)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.InDelta(t, 2, tokens, 0.2)
	})

	t.Run("status does not consume", func(t *testing.T) {
		before, err := store.BucketStatus(ctx, key, 5, 1)
		require.NoError(t, err)
		after, err := store.BucketStatus(ctx, key, 5, 1)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, after, before)
	})

	t.Run("delete resets to full", func(t *testing.T) {
		require.NoError(t, store.DeleteBucket(ctx, key))

		tokens, err := store.BucketStatus(ctx, key, 5, 1)
		require.NoError(t, err)
		assert.InDelta(t, 5, tokens, 0.1)
	})
}
