package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gatekit/gatekit/pkg/jwt"
)

// Default token lifetimes. Access tokens are deliberately short because
// they cannot be revoked before expiry; the refresh token's revocation
// record is the only server-side handle on a session.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenPair is the result of a successful login: a short-lived access
// token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service issues, refreshes, and revokes token pairs.
type Service struct {
	signer     *jwt.Signer
	store      RevocationStore
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer sets the iss claim on issued tokens.
func WithIssuer(issuer string) Option {
	return func(s *Service) { s.issuer = issuer }
}

// WithAccessTTL overrides the access token lifetime.
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithRefreshTTL overrides the refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// NewService creates a token service backed by the given signer and
// revocation store.
func NewService(signer *jwt.Signer, store RevocationStore, opts ...Option) (*Service, error) {
	if signer == nil {
		return nil, ErrSignerRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	s := &Service{
		signer:     signer,
		store:      store,
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// IssueTokenPair mints an access/refresh token pair for the user and
// records the refresh token's JTI as active in the revocation store.
func (s *Service) IssueTokenPair(ctx context.Context, userID, role string) (*TokenPair, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	access, err := s.mintAccessToken(userID, role)
	if err != nil {
		return nil, err
	}

	jti := uuid.NewString()
	refresh, err := s.signer.Sign(s.claims(userID, role, TokenTypeRefresh, jti, s.refreshTTL))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	rec := RefreshRecord{UserID: userID, Active: true}
	if err := s.store.Save(ctx, jti, rec, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("save refresh record: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// RefreshAccessToken validates a refresh token and mints a fresh access
// token for its subject. The token must verify, carry type "refresh",
// and have a JTI that is known and still active.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	var claims Claims
	if err := s.signer.Verify(refreshToken, &claims); err != nil {
		return "", errors.Join(ErrInvalidRefreshToken, err)
	}

	if claims.TokenType != TokenTypeRefresh {
		return "", ErrWrongTokenType
	}
	if claims.ID == "" {
		return "", ErrUnknownToken
	}

	rec, err := s.store.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return "", ErrUnknownToken
		}
		return "", err
	}
	if !rec.Active {
		return "", ErrTokenRevoked
	}

	return s.mintAccessToken(claims.Subject, claims.Role)
}

// Revoke marks the refresh token with the given JTI inactive. Every
// later refresh attempt with that JTI fails, even though the token's
// signature stays valid until exp. Already-issued access tokens are
// unaffected until they expire.
func (s *Service) Revoke(ctx context.Context, jti string) error {
	if err := s.store.Revoke(ctx, jti); err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return ErrUnknownToken
		}
		return err
	}
	return nil
}

// VerifyAccessToken checks an access token and returns its claims.
// Refresh tokens are rejected so they cannot be used to call APIs.
func (s *Service) VerifyAccessToken(token string) (*Claims, error) {
	var claims Claims
	if err := s.signer.Verify(token, &claims); err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	return &claims, nil
}

func (s *Service) mintAccessToken(userID, role string) (string, error) {
	access, err := s.signer.Sign(s.claims(userID, role, TokenTypeAccess, "", s.accessTTL))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return access, nil
}

func (s *Service) claims(userID, role, tokenType, jti string, ttl time.Duration) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
		Role:      role,
		TokenType: tokenType,
	}
}
