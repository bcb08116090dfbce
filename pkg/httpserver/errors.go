package httpserver

import "errors"

var (
	// ErrStart indicates the server failed to start or crashed while serving.
	ErrStart = errors.New("httpserver: failed to start")
	// ErrShutdown indicates graceful shutdown did not complete.
	ErrShutdown = errors.New("httpserver: failed to shutdown gracefully")
)
