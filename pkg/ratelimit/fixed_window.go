package ratelimit

import (
	"context"
	"time"
)

// FixedWindow admits up to limit requests per window, counted in buckets
// that reset wholesale at window boundaries. It is the cheapest strategy
// but admits up to 2×limit across a boundary (limit at the end of one
// window, limit again at the start of the next); callers who need a
// smooth rate should use SlidingWindow instead.
type FixedWindow struct {
	store  CounterStore
	limit  int
	window time.Duration
}

// NewFixedWindow creates a fixed-window rate limiter.
func NewFixedWindow(store CounterStore, limit int, window time.Duration) (*FixedWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidWindow
	}

	return &FixedWindow{
		store:  store,
		limit:  limit,
		window: window,
	}, nil
}

// Allow checks if a single request is admitted for the given key.
func (fw *FixedWindow) Allow(ctx context.Context, key string) (*Result, error) {
	return fw.AllowN(ctx, key, 1)
}

// AllowN checks if n requests are admitted for the given key.
func (fw *FixedWindow) AllowN(ctx context.Context, key string, n int) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	if n <= 0 {
		return nil, ErrInvalidCost
	}

	allowed, count, resetAt, err := fw.store.IncrWindow(ctx, key, n, fw.limit, fw.window)
	if err != nil {
		return nil, err
	}

	return &Result{
		Allowed:   allowed,
		Limit:     fw.limit,
		Remaining: max(0, fw.limit-count),
		ResetAt:   resetAt,
	}, nil
}

// Status reports the current window state without consuming anything.
func (fw *FixedWindow) Status(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	count, resetAt, err := fw.store.WindowStatus(ctx, key)
	if err != nil {
		return nil, err
	}
	if resetAt.IsZero() {
		resetAt = time.Now().Add(fw.window)
	}

	return &Result{
		Allowed:   count < fw.limit,
		Limit:     fw.limit,
		Remaining: max(0, fw.limit-count),
		ResetAt:   resetAt,
	}, nil
}

// Reset clears the window for the given key.
func (fw *FixedWindow) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return fw.store.DeleteCounter(ctx, key)
}
