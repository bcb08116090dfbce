package ratelimit

import (
	"context"
	"math"
	"time"
)

// TokenBucket admits requests by spending tokens from a per-key balance
// that refills continuously at a fixed rate up to a cap. A full bucket
// absorbs a burst of up to capacity requests at once; that burst
// tolerance is the property that distinguishes it from the window
// strategies.
type TokenBucket struct {
	store      BucketStore
	capacity   int
	ratePerSec float64
}

// TokenBucketOption configures a TokenBucket.
type TokenBucketOption func(*TokenBucket)

// WithCapacity overrides the bucket capacity (burst size). The default
// capacity equals the refill rate rounded up, i.e. roughly one second of
// traffic.
func WithCapacity(capacity int) TokenBucketOption {
	return func(tb *TokenBucket) {
		if capacity > 0 {
			tb.capacity = capacity
		}
	}
}

// NewTokenBucket creates a token bucket limiter that refills ratePerSec
// tokens per second.
func NewTokenBucket(store BucketStore, ratePerSec float64, opts ...TokenBucketOption) (*TokenBucket, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if ratePerSec <= 0 {
		return nil, ErrInvalidRate
	}

	tb := &TokenBucket{
		store:      store,
		capacity:   int(math.Ceil(ratePerSec)),
		ratePerSec: ratePerSec,
	}

	for _, opt := range opts {
		opt(tb)
	}

	return tb, nil
}

// Allow checks if a single request is admitted for the given key.
func (tb *TokenBucket) Allow(ctx context.Context, key string) (*Result, error) {
	return tb.AllowN(ctx, key, 1)
}

// AllowN checks if n requests are admitted for the given key, spending n
// tokens on success.
func (tb *TokenBucket) AllowN(ctx context.Context, key string, n int) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	if n <= 0 {
		return nil, ErrInvalidCost
	}

	now := time.Now()

	allowed, tokens, err := tb.store.TakeTokens(ctx, key, n, tb.capacity, tb.ratePerSec)
	if err != nil {
		return nil, err
	}

	return &Result{
		Allowed:   allowed,
		Limit:     tb.capacity,
		Remaining: int(tokens),
		ResetAt:   now.Add(tb.replenishIn(tokens, n, allowed)),
	}, nil
}

// Status reports the current balance without spending tokens.
func (tb *TokenBucket) Status(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	now := time.Now()

	tokens, err := tb.store.BucketStatus(ctx, key, tb.capacity, tb.ratePerSec)
	if err != nil {
		return nil, err
	}

	return &Result{
		Allowed:   tokens >= 1,
		Limit:     tb.capacity,
		Remaining: int(tokens),
		ResetAt:   now.Add(tb.replenishIn(tokens, 1, tokens >= 1)),
	}, nil
}

// Reset clears the bucket for the given key, restoring full capacity on
// the next request.
func (tb *TokenBucket) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return tb.store.DeleteBucket(ctx, key)
}

// replenishIn returns how long until the balance covers the next
// request: the deficit for denied calls, one token's worth otherwise.
func (tb *TokenBucket) replenishIn(tokens float64, n int, allowed bool) time.Duration {
	deficit := 1.0
	if !allowed {
		deficit = float64(n) - tokens
	}
	secs := math.Ceil(deficit / tb.ratePerSec)
	return time.Duration(secs * float64(time.Second))
}
