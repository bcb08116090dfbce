// Package clientip resolves the originating client IP of an HTTP
// request from common proxy headers, falling back to the socket address.
// It is the default key source for rate limiting.
package clientip
