package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowCounter struct {
	count   int
	resetAt time.Time
}

type timestampLog struct {
	stamps []time.Time
}

type tokenBalance struct {
	tokens     float64
	lastRefill time.Time
	lastAccess time.Time
}

// MemoryStore keeps all rate limit state in process memory. It backs all
// three strategies and is safe for concurrent use: every read-check-write
// for a key happens under the store mutex, so refill and consume cannot
// interleave between goroutines.
//
// A background sweep evicts expired counters, empty logs, and idle
// buckets so the key space cannot grow without bound.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	logs     map[string]*timestampLog
	buckets  map[string]*tokenBalance

	sweepInterval time.Duration
	bucketIdleTTL time.Duration
	stopSweep     chan struct{}
	sweepOnce     sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithSweepInterval sets how often stale entries are evicted.
// Set to 0 to disable the background sweep.
func WithSweepInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.sweepInterval = interval
	}
}

// WithBucketIdleTTL sets how long an untouched token bucket survives
// before the sweep evicts it.
func WithBucketIdleTTL(ttl time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if ttl > 0 {
			ms.bucketIdleTTL = ttl
		}
	}
}

// NewMemoryStore creates an in-memory store with background eviction.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		counters:      make(map[string]*windowCounter),
		logs:          make(map[string]*timestampLog),
		buckets:       make(map[string]*tokenBalance),
		sweepInterval: time.Minute,
		bucketIdleTTL: time.Hour,
		stopSweep:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(ms)
	}

	if ms.sweepInterval > 0 {
		go ms.sweepLoop()
	}

	return ms
}

// IncrWindow implements CounterStore.
func (ms *MemoryStore) IncrWindow(ctx context.Context, key string, n, limit int, window time.Duration) (bool, int, time.Time, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	wc, exists := ms.counters[key]

	if !exists || !now.Before(wc.resetAt) {
		wc = &windowCounter{resetAt: now.Add(window)}
		ms.counters[key] = wc
	}

	if wc.count+n > limit {
		return false, wc.count, wc.resetAt, nil
	}

	wc.count += n
	return true, wc.count, wc.resetAt, nil
}

// WindowStatus implements CounterStore.
func (ms *MemoryStore) WindowStatus(ctx context.Context, key string) (int, time.Time, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	wc, exists := ms.counters[key]
	if !exists || !time.Now().Before(wc.resetAt) {
		return 0, time.Time{}, nil
	}
	return wc.count, wc.resetAt, nil
}

// DeleteCounter implements CounterStore.
func (ms *MemoryStore) DeleteCounter(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.counters, key)
	return nil
}

// AppendLog implements LogStore.
func (ms *MemoryStore) AppendLog(ctx context.Context, key string, now time.Time, window time.Duration, limit, n int) (bool, int, time.Time, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	tl, exists := ms.logs[key]
	if !exists {
		tl = &timestampLog{stamps: make([]time.Time, 0, limit)}
		ms.logs[key] = tl
	}

	tl.prune(now.Add(-window))

	if len(tl.stamps)+n > limit {
		return false, len(tl.stamps), tl.oldest(), nil
	}

	for range n {
		tl.stamps = append(tl.stamps, now)
	}
	return true, len(tl.stamps), tl.oldest(), nil
}

// LogStatus implements LogStore.
func (ms *MemoryStore) LogStatus(ctx context.Context, key string, now time.Time, window time.Duration) (int, time.Time, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	tl, exists := ms.logs[key]
	if !exists {
		return 0, time.Time{}, nil
	}

	tl.prune(now.Add(-window))
	return len(tl.stamps), tl.oldest(), nil
}

// DeleteLog implements LogStore.
func (ms *MemoryStore) DeleteLog(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.logs, key)
	return nil
}

// TakeTokens implements BucketStore.
func (ms *MemoryStore) TakeTokens(ctx context.Context, key string, n, capacity int, ratePerSec float64) (bool, float64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	tokens := ms.refillLocked(key, capacity, ratePerSec)
	tb := ms.buckets[key]

	if tokens < float64(n) {
		return false, tokens, nil
	}

	tb.tokens = tokens - float64(n)
	return true, tb.tokens, nil
}

// BucketStatus implements BucketStore.
func (ms *MemoryStore) BucketStatus(ctx context.Context, key string, capacity int, ratePerSec float64) (float64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	return ms.refillLocked(key, capacity, ratePerSec), nil
}

// DeleteBucket implements BucketStore.
func (ms *MemoryStore) DeleteBucket(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.buckets, key)
	return nil
}

// refillLocked brings the bucket for key up to date and returns its
// balance. Callers must hold ms.mu.
func (ms *MemoryStore) refillLocked(key string, capacity int, ratePerSec float64) float64 {
	now := time.Now()
	tb, exists := ms.buckets[key]

	if !exists {
		tb = &tokenBalance{
			tokens:     float64(capacity),
			lastRefill: now,
		}
		ms.buckets[key] = tb
	} else {
		elapsed := now.Sub(tb.lastRefill).Seconds()
		tb.tokens = min(float64(capacity), tb.tokens+elapsed*ratePerSec)
		tb.lastRefill = now
	}

	tb.lastAccess = now
	return tb.tokens
}

func (tl *timestampLog) prune(cutoff time.Time) {
	kept := tl.stamps[:0]
	for _, ts := range tl.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	tl.stamps = kept
}

func (tl *timestampLog) oldest() time.Time {
	if len(tl.stamps) == 0 {
		return time.Time{}
	}
	return tl.stamps[0]
}

func (ms *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(ms.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.sweep()
		case <-ms.stopSweep:
			return
		}
	}
}

func (ms *MemoryStore) sweep() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()

	for key, wc := range ms.counters {
		if !now.Before(wc.resetAt) {
			delete(ms.counters, key)
		}
	}
	for key, tl := range ms.logs {
		if len(tl.stamps) == 0 {
			delete(ms.logs, key)
		}
	}
	for key, tb := range ms.buckets {
		if now.Sub(tb.lastAccess) > ms.bucketIdleTTL {
			delete(ms.buckets, key)
		}
	}
}

// Close stops the background sweep. Safe to call multiple times.
func (ms *MemoryStore) Close() error {
	ms.sweepOnce.Do(func() {
		close(ms.stopSweep)
	})
	return nil
}
