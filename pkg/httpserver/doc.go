// Package httpserver wraps net/http with env-driven configuration,
// graceful shutdown on signal or context cancellation, and health probe
// handlers.
package httpserver
