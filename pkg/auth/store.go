package auth

import (
	"context"
	"time"
)

// RefreshRecord is the server-side state for one issued refresh token.
type RefreshRecord struct {
	UserID string `json:"user_id"`
	Active bool   `json:"active"`
}

// RevocationStore tracks issued refresh tokens by JTI. Records expire
// together with the token they describe; Get for an expired or never
// issued JTI returns ErrTokenNotFound.
type RevocationStore interface {
	// Save records a freshly issued refresh token. ttl should match the
	// token's remaining lifetime so the record disappears with it.
	Save(ctx context.Context, jti string, rec RefreshRecord, ttl time.Duration) error

	// Get returns the record for jti.
	Get(ctx context.Context, jti string) (RefreshRecord, error)

	// Revoke marks the record inactive. Revoking an unknown jti returns
	// ErrTokenNotFound.
	Revoke(ctx context.Context, jti string) error
}
