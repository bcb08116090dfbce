package jwt

import (
	"net/http"
	"strings"
)

// Extractor pulls a token string out of an HTTP request.
type Extractor func(r *http.Request) (string, error)

// BearerExtractor reads the token from "Authorization: Bearer <token>".
func BearerExtractor(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(auth, " ")
	if !found || scheme != "Bearer" || token == "" {
		return "", ErrMalformedToken
	}
	return token, nil
}

// CookieExtractor reads the token from the named cookie.
func CookieExtractor(name string) Extractor {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(name)
		if err != nil {
			return "", ErrMalformedToken
		}
		return cookie.Value, nil
	}
}

// HeaderExtractor reads the token verbatim from the named header.
func HeaderExtractor(name string) Extractor {
	return func(r *http.Request) (string, error) {
		token := r.Header.Get(name)
		if token == "" {
			return "", ErrMalformedToken
		}
		return token, nil
	}
}

// MiddlewareConfig configures the JWT middleware.
type MiddlewareConfig struct {
	Signer    *Signer
	Extractor Extractor                  // defaults to BearerExtractor
	Skip      func(r *http.Request) bool // optional bypass
}

// Middleware verifies the token on every request and injects the raw
// token and its claims (as map[string]any) into the request context.
// Requests without a valid token get 401.
func Middleware(signer *Signer) func(http.Handler) http.Handler {
	return MiddlewareWithConfig(MiddlewareConfig{Signer: signer})
}

// MiddlewareWithConfig is Middleware with a custom extractor or skip rule.
func MiddlewareWithConfig(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	if cfg.Signer == nil {
		panic("jwt.Middleware: signer is required")
	}
	if cfg.Extractor == nil {
		cfg.Extractor = BearerExtractor
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			token, err := cfg.Extractor(r)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims := make(map[string]any)
			if err := cfg.Signer.Verify(token, &claims); err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := WithToken(r.Context(), token)
			ctx = WithClaims(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
