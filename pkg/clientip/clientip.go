package clientip

import (
	"net"
	"net/http"
	"strings"
)

// FromRequest resolves the client IP for a request, preferring proxy
// headers over the socket address:
//
//  1. CF-Connecting-IP (Cloudflare)
//  2. X-Forwarded-For (first valid entry)
//  3. X-Real-IP (nginx)
//  4. RemoteAddr
//
// Returns an empty string only when nothing parses as an IP.
func FromRequest(r *http.Request) string {
	if ip := parseIP(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for entry := range strings.SplitSeq(forwarded, ",") {
			if ip := parseIP(strings.TrimSpace(entry)); ip != "" {
				return ip
			}
		}
	}

	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	// RemoteAddr is usually host:port, but not always (unix sockets,
	// tests constructing bare requests).
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		if ip := parseIP(host); ip != "" {
			return ip
		}
	}
	return parseIP(r.RemoteAddr)
}

// parseIP returns the canonical text form of s if it is a valid IP,
// stripping brackets and any IPv6 zone.
func parseIP(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if zone := strings.IndexByte(s, '%'); zone >= 0 {
		s = s[:zone]
	}

	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
