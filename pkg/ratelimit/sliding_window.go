package ratelimit

import (
	"context"
	"time"
)

// SlidingWindow admits up to limit requests within any trailing window by
// keeping one timestamp per admitted request. It never exhibits the
// boundary burst of FixedWindow, at the cost of storing the timestamp log.
type SlidingWindow struct {
	store  LogStore
	limit  int
	window time.Duration
}

// NewSlidingWindow creates a sliding-window rate limiter.
func NewSlidingWindow(store LogStore, limit int, window time.Duration) (*SlidingWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidWindow
	}

	return &SlidingWindow{
		store:  store,
		limit:  limit,
		window: window,
	}, nil
}

// Allow checks if a single request is admitted for the given key.
func (sw *SlidingWindow) Allow(ctx context.Context, key string) (*Result, error) {
	return sw.AllowN(ctx, key, 1)
}

// AllowN checks if n requests are admitted for the given key.
func (sw *SlidingWindow) AllowN(ctx context.Context, key string, n int) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	if n <= 0 {
		return nil, ErrInvalidCost
	}

	now := time.Now()

	allowed, count, oldest, err := sw.store.AppendLog(ctx, key, now, sw.window, sw.limit, n)
	if err != nil {
		return nil, err
	}

	// Denied requests retry once the oldest surviving entry ages out.
	resetAt := now.Add(sw.window)
	if !allowed && !oldest.IsZero() {
		resetAt = oldest.Add(sw.window)
	}

	return &Result{
		Allowed:   allowed,
		Limit:     sw.limit,
		Remaining: max(0, sw.limit-count),
		ResetAt:   resetAt,
	}, nil
}

// Status reports the current window state without recording a request.
func (sw *SlidingWindow) Status(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	now := time.Now()

	count, oldest, err := sw.store.LogStatus(ctx, key, now, sw.window)
	if err != nil {
		return nil, err
	}

	resetAt := now.Add(sw.window)
	if count >= sw.limit && !oldest.IsZero() {
		resetAt = oldest.Add(sw.window)
	}

	return &Result{
		Allowed:   count < sw.limit,
		Limit:     sw.limit,
		Remaining: max(0, sw.limit-count),
		ResetAt:   resetAt,
	}, nil
}

// Reset clears the timestamp log for the given key.
func (sw *SlidingWindow) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return sw.store.DeleteLog(ctx, key)
}
