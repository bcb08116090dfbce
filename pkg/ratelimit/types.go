package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of an admission check.
type Result struct {
	// Allowed reports whether the request was admitted.
	Allowed bool

	// Limit is the maximum number of requests the strategy permits
	// (window size for counters, bucket capacity for token buckets).
	Limit int

	// Remaining is the capacity left after this check.
	Remaining int

	// ResetAt is when capacity becomes available again. For denied
	// requests this is the earliest moment a retry can succeed.
	ResetAt time.Time
}

// RetryAfter returns how long the caller should wait before retrying.
// It is zero for admitted requests.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Limiter is the contract shared by all rate limiting strategies.
type Limiter interface {
	// Allow checks whether a single request is admitted for key,
	// consuming one slot on success.
	Allow(ctx context.Context, key string) (*Result, error)

	// AllowN checks whether n requests are admitted for key,
	// consuming n slots on success.
	AllowN(ctx context.Context, key string, n int) (*Result, error)

	// Status reports the current state for key without consuming anything.
	Status(ctx context.Context, key string) (*Result, error)

	// Reset clears all rate limit state for key.
	Reset(ctx context.Context, key string) error
}

// CounterStore persists fixed-window counters.
//
// Implementations must make IncrWindow a single atomic step: the window
// rollover check, the limit check, and the increment may not interleave
// with another caller for the same key.
type CounterStore interface {
	// IncrWindow increments the counter for key by n if the result stays
	// within limit, starting a fresh window when the current one has
	// elapsed. It returns whether the increment was applied, the counter
	// value after the call, and the time the window ends.
	IncrWindow(ctx context.Context, key string, n, limit int, window time.Duration) (allowed bool, count int, resetAt time.Time, err error)

	// WindowStatus returns the counter value and window end for key
	// without modifying anything. A missing key reports a zero count.
	WindowStatus(ctx context.Context, key string) (count int, resetAt time.Time, err error)

	// DeleteCounter removes the counter for key.
	DeleteCounter(ctx context.Context, key string) error
}

// LogStore persists sliding-window timestamp logs.
type LogStore interface {
	// AppendLog prunes entries older than window, then appends n
	// timestamps at now if the pruned log holds fewer than limit
	// entries. It returns whether the append happened, the log length
	// after the call, and the oldest surviving timestamp (zero when the
	// log is empty).
	AppendLog(ctx context.Context, key string, now time.Time, window time.Duration, limit, n int) (allowed bool, count int, oldest time.Time, err error)

	// LogStatus returns the live entry count and oldest surviving
	// timestamp without recording anything.
	LogStatus(ctx context.Context, key string, now time.Time, window time.Duration) (count int, oldest time.Time, err error)

	// DeleteLog removes the timestamp log for key.
	DeleteLog(ctx context.Context, key string) error
}

// BucketStore persists token-bucket balances.
type BucketStore interface {
	// TakeTokens refills the bucket for key at ratePerSec up to capacity,
	// then consumes n tokens if the balance covers them. It returns
	// whether the tokens were taken and the balance after the call
	// (the post-refill balance when denied).
	TakeTokens(ctx context.Context, key string, n, capacity int, ratePerSec float64) (allowed bool, tokens float64, err error)

	// BucketStatus returns the current post-refill balance without
	// consuming tokens.
	BucketStatus(ctx context.Context, key string, capacity int, ratePerSec float64) (tokens float64, err error)

	// DeleteBucket removes the bucket for key.
	DeleteBucket(ctx context.Context, key string) error
}

// Store combines the three per-strategy backends. MemoryStore and
// RedisStore implement it so one backend instance can serve any mix of
// limiters.
type Store interface {
	CounterStore
	LogStore
	BucketStore
}
