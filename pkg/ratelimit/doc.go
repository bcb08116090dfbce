// Package ratelimit provides three interchangeable rate limiting
// strategies behind a single Limiter contract, with in-memory and Redis
// state backends and net/http middleware.
//
// # Strategies
//
//   - FixedWindow counts requests in buckets that reset at fixed
//     boundaries. Cheapest, but admits up to twice the limit across a
//     window boundary.
//   - SlidingWindow keeps one timestamp per admitted request and counts
//     those within the trailing window. No boundary burst.
//   - TokenBucket spends tokens from a continuously refilling balance,
//     allowing bursts up to the bucket capacity.
//
// All three return a *Result describing the decision, the remaining
// capacity, and when capacity returns; denial is data, not an error.
//
// # Usage
//
//	store := ratelimit.NewMemoryStore()
//	defer store.Close()
//
//	limiter, err := ratelimit.NewSlidingWindow(store, 100, time.Minute)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := limiter.Allow(ctx, "user:42")
//	if err != nil {
//		return err
//	}
//	if !result.Allowed {
//		// deny; retry after result.RetryAfter()
//	}
//
// For deployments with more than one process, back the limiters with
// NewRedisStore so every instance shares the same counters:
//
//	store, err := ratelimit.NewRedisStore(client)
//
// # Middleware
//
// Middleware wires a limiter into an http.Handler chain, keyed by a
// KeyFunc such as ByClientIP:
//
//	handler = ratelimit.Middleware(limiter, ratelimit.ByClientIP)(handler)
//
// Responses carry X-RateLimit-Limit, X-RateLimit-Remaining, and
// X-RateLimit-Reset; denied requests get Retry-After and 429. Store
// failures fail open.
package ratelimit
