package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gatekit/gatekit/pkg/clientip"
)

// maxKeyLength caps the storage key size; anything longer is hashed so
// backends like Redis never see unbounded keys.
const maxKeyLength = 64

// KeyFunc extracts the rate limit key from an HTTP request. An empty
// return value tells the middleware to skip limiting for that request.
type KeyFunc func(*http.Request) string

// ByClientIP keys requests on the resolved client IP, honoring the usual
// proxy headers.
func ByClientIP(r *http.Request) string {
	return clientip.FromRequest(r)
}

// ByHeader keys requests on a header value, e.g. an API key header.
func ByHeader(name string) KeyFunc {
	return func(r *http.Request) string {
		return r.Header.Get(name)
	}
}

// Composite joins the non-empty results of several key functions with
// ":". Combined keys longer than 64 characters are replaced by a 32-hex
// SHA256 prefix to keep storage keys bounded.
func Composite(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(keyFuncs))
		for _, fn := range keyFuncs {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}

		if len(parts) == 0 {
			return ""
		}

		combined := strings.Join(parts, ":")
		if len(combined) > maxKeyLength {
			sum := sha256.Sum256([]byte(combined))
			return hex.EncodeToString(sum[:16])
		}
		return combined
	}
}
