package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekit/gatekit/pkg/ratelimit"
)

func TestNewTokenBucket(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	t.Run("nil store", func(t *testing.T) {
		tb, err := ratelimit.NewTokenBucket(nil, 10)
		require.ErrorIs(t, err, ratelimit.ErrStoreRequired)
		require.Nil(t, tb)
	})

	t.Run("invalid rate", func(t *testing.T) {
		tb, err := ratelimit.NewTokenBucket(store, 0)
		require.ErrorIs(t, err, ratelimit.ErrInvalidRate)
		require.Nil(t, tb)
	})

	t.Run("valid", func(t *testing.T) {
		tb, err := ratelimit.NewTokenBucket(store, 10, ratelimit.WithCapacity(100))
		require.NoError(t, err)
		require.NotNil(t, tb)
	})
}

func TestTokenBucketAllow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("full bucket absorbs a burst of capacity", func(t *testing.T) {
		t.Parallel()
		store := ratelimit.NewMemoryStore()
		t.Cleanup(func() { _ = store.Close() })

		tb, err := ratelimit.NewTokenBucket(store, 1, ratelimit.WithCapacity(5))
		require.NoError(t, err)

		for i := range 5 {
			result, err := tb.Allow(ctx, "client")
			require.NoError(t, err)
			assert.True(t, result.Allowed, "burst call %d", i+1)
		}

		result, err := tb.Allow(ctx, "client")
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Greater(t, result.RetryAfter(), time.Duration(0))
	})

	t.Run("refill admits one more after 1/rate", func(t *testing.T) {
		t.Parallel()
		store := ratelimit.NewMemoryStore()
		t.Cleanup(func() { _ = store.Close() })

		// 10 tokens/sec: a fresh token lands every 100ms.
		tb, err := ratelimit.NewTokenBucket(store, 10, ratelimit.WithCapacity(3))
		require.NoError(t, err)

		for range 3 {
			result, err := tb.Allow(ctx, "client")
			require.NoError(t, err)
			require.True(t, result.Allowed)
		}
		result, err := tb.Allow(ctx, "client")
		require.NoError(t, err)
		require.False(t, result.Allowed)

		time.Sleep(150 * time.Millisecond)

		result, err = tb.Allow(ctx, "client")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("AllowN spends n tokens atomically", func(t *testing.T) {
		t.Parallel()
		store := ratelimit.NewMemoryStore()
		t.Cleanup(func() { _ = store.Close() })

		tb, err := ratelimit.NewTokenBucket(store, 1, ratelimit.WithCapacity(5))
		require.NoError(t, err)

		result, err := tb.AllowN(ctx, "client", 5)
		require.NoError(t, err)
		require.True(t, result.Allowed)
		assert.Equal(t, 0, result.Remaining)

		result, err = tb.AllowN(ctx, "client", 2)
		require.NoError(t, err)
		assert.False(t, result.Allowed)
	})

	t.Run("invalid cost rejected", func(t *testing.T) {
		t.Parallel()
		store := ratelimit.NewMemoryStore()
		t.Cleanup(func() { _ = store.Close() })

		tb, err := ratelimit.NewTokenBucket(store, 1)
		require.NoError(t, err)

		_, err = tb.AllowN(ctx, "client", 0)
		require.ErrorIs(t, err, ratelimit.ErrInvalidCost)
	})
}

func TestTokenBucketStatusAndReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	tb, err := ratelimit.NewTokenBucket(store, 1, ratelimit.WithCapacity(4))
	require.NoError(t, err)

	status, err := tb.Status(ctx, "client")
	require.NoError(t, err)
	assert.True(t, status.Allowed)
	assert.Equal(t, 4, status.Remaining)

	_, err = tb.AllowN(ctx, "client", 3)
	require.NoError(t, err)

	status, err = tb.Status(ctx, "client")
	require.NoError(t, err)
	assert.Equal(t, 1, status.Remaining)

	require.NoError(t, tb.Reset(ctx, "client"))

	status, err = tb.Status(ctx, "client")
	require.NoError(t, err)
	assert.Equal(t, 4, status.Remaining)
}
