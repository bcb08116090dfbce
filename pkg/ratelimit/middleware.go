package ratelimit

import (
	"net/http"
	"strconv"
)

// MiddlewareOption configures the rate limiting middleware.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	onDenied func(w http.ResponseWriter, r *http.Request, result *Result)
	skip     func(r *http.Request) bool
}

// WithDeniedHandler replaces the default 429 response for denied requests.
func WithDeniedHandler(fn func(w http.ResponseWriter, r *http.Request, result *Result)) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.onDenied = fn
		}
	}
}

// WithSkip exempts matching requests from rate limiting.
func WithSkip(fn func(r *http.Request) bool) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skip = fn
	}
}

// Middleware enforces the limiter for every request, keyed by keyFunc.
// Responses always carry X-RateLimit-Limit, X-RateLimit-Remaining, and
// X-RateLimit-Reset; denied requests additionally get Retry-After and a
// 429 status. Store errors fail open so a storage outage does not take
// the service down with it.
func Middleware(limiter Limiter, keyFunc KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if limiter == nil {
		panic("ratelimit.Middleware: limiter is required")
	}
	if keyFunc == nil {
		panic("ratelimit.Middleware: keyFunc is required")
	}

	cfg := &middlewareConfig{
		onDenied: deniedResponse,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.skip != nil && cfg.skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.Allow(r.Context(), key)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				cfg.onDenied(w, r, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func deniedResponse(w http.ResponseWriter, r *http.Request, result *Result) {
	retryAfter := int(result.RetryAfter().Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
}
