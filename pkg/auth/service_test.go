package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekit/gatekit/pkg/auth"
	"github.com/gatekit/gatekit/pkg/jwt"
)

func newTestService(t *testing.T, opts ...auth.Option) (*auth.Service, *auth.MemoryRevocationStore) {
	t.Helper()

	signer, err := jwt.NewSignerFromString("test-secret")
	require.NoError(t, err)

	store := auth.NewMemoryRevocationStore(auth.WithSweepInterval(0))
	t.Cleanup(func() { store.Close() })

	svc, err := auth.NewService(signer, store, opts...)
	require.NoError(t, err)
	return svc, store
}

func TestNewService(t *testing.T) {
	t.Parallel()

	signer, err := jwt.NewSignerFromString("test-secret")
	require.NoError(t, err)
	store := auth.NewMemoryRevocationStore(auth.WithSweepInterval(0))
	t.Cleanup(func() { store.Close() })

	t.Run("requires signer", func(t *testing.T) {
		_, err := auth.NewService(nil, store)
		require.ErrorIs(t, err, auth.ErrSignerRequired)
	})

	t.Run("requires store", func(t *testing.T) {
		_, err := auth.NewService(signer, nil)
		require.ErrorIs(t, err, auth.ErrStoreRequired)
	})

	t.Run("valid", func(t *testing.T) {
		svc, err := auth.NewService(signer, store)
		require.NoError(t, err)
		require.NotNil(t, svc)
	})
}

func TestIssueTokenPair(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t, auth.WithIssuer("gatekit-test"))

	t.Run("empty user id rejected", func(t *testing.T) {
		_, err := svc.IssueTokenPair(ctx, "", "admin")
		require.ErrorIs(t, err, auth.ErrUserIDRequired)
	})

	t.Run("pair carries the expected claims", func(t *testing.T) {
		pair, err := svc.IssueTokenPair(ctx, "user-42", "admin")
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)
		assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

		access, err := svc.VerifyAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "user-42", access.Subject)
		assert.Equal(t, "admin", access.Role)
		assert.Equal(t, "gatekit-test", access.Issuer)
		assert.Equal(t, auth.TokenTypeAccess, access.TokenType)
		assert.Empty(t, access.ID)
	})

	t.Run("successive pairs get distinct refresh tokens", func(t *testing.T) {
		first, err := svc.IssueTokenPair(ctx, "user-42", "")
		require.NoError(t, err)
		second, err := svc.IssueTokenPair(ctx, "user-42", "")
		require.NoError(t, err)
		assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	})
}

func TestRefreshAccessToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t)

	t.Run("valid refresh token mints a new access token", func(t *testing.T) {
		pair, err := svc.IssueTokenPair(ctx, "user-42", "viewer")
		require.NoError(t, err)

		access, err := svc.RefreshAccessToken(ctx, pair.RefreshToken)
		require.NoError(t, err)

		claims, err := svc.VerifyAccessToken(access)
		require.NoError(t, err)
		assert.Equal(t, "user-42", claims.Subject)
		assert.Equal(t, "viewer", claims.Role)
	})

	t.Run("refresh token stays usable across refreshes", func(t *testing.T) {
		pair, err := svc.IssueTokenPair(ctx, "user-42", "")
		require.NoError(t, err)

		_, err = svc.RefreshAccessToken(ctx, pair.RefreshToken)
		require.NoError(t, err)
		_, err = svc.RefreshAccessToken(ctx, pair.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		_, err := svc.RefreshAccessToken(ctx, "not.a.token")
		require.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	})

	t.Run("access token cannot be used as refresh token", func(t *testing.T) {
		pair, err := svc.IssueTokenPair(ctx, "user-42", "")
		require.NoError(t, err)

		_, err = svc.RefreshAccessToken(ctx, pair.AccessToken)
		require.ErrorIs(t, err, auth.ErrWrongTokenType)
	})

	t.Run("unknown jti rejected", func(t *testing.T) {
		other, _ := newTestService(t)
		pair, err := other.IssueTokenPair(ctx, "user-42", "")
		require.NoError(t, err)

		// Same secret, so the signature verifies, but this service's
		// store has never seen the JTI.
		_, err = svc.RefreshAccessToken(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, auth.ErrUnknownToken)
	})

	t.Run("revoked token rejected", func(t *testing.T) {
		pair, err := svc.IssueTokenPair(ctx, "user-42", "")
		require.NoError(t, err)

		var claims auth.Claims
		signer, err := jwt.NewSignerFromString("test-secret")
		require.NoError(t, err)
		require.NoError(t, signer.Verify(pair.RefreshToken, &claims))

		require.NoError(t, svc.Revoke(ctx, claims.ID))

		_, err = svc.RefreshAccessToken(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, auth.ErrTokenRevoked)
	})
}

func TestRevoke(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t)

	t.Run("unknown jti", func(t *testing.T) {
		err := svc.Revoke(ctx, "no-such-jti")
		require.ErrorIs(t, err, auth.ErrUnknownToken)
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		pair, err := svc.IssueTokenPair(ctx, "user-42", "")
		require.NoError(t, err)

		var claims auth.Claims
		signer, err := jwt.NewSignerFromString("test-secret")
		require.NoError(t, err)
		require.NoError(t, signer.Verify(pair.RefreshToken, &claims))

		require.NoError(t, svc.Revoke(ctx, claims.ID))
		require.NoError(t, svc.Revoke(ctx, claims.ID))
	})
}

func TestVerifyAccessToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t)

	t.Run("refresh token rejected", func(t *testing.T) {
		pair, err := svc.IssueTokenPair(ctx, "user-42", "")
		require.NoError(t, err)

		_, err = svc.VerifyAccessToken(pair.RefreshToken)
		require.ErrorIs(t, err, auth.ErrWrongTokenType)
	})

	t.Run("expired access token rejected", func(t *testing.T) {
		short, _ := newTestService(t, auth.WithAccessTTL(time.Nanosecond))
		pair, err := short.IssueTokenPair(ctx, "user-42", "")
		require.NoError(t, err)

		time.Sleep(1100 * time.Millisecond)

		_, err = short.VerifyAccessToken(pair.AccessToken)
		require.ErrorIs(t, err, jwt.ErrTokenExpired)
	})
}
