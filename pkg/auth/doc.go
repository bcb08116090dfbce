// Package auth issues and refreshes access/refresh token pairs on top
// of pkg/jwt, with JTI-based revocation of refresh tokens.
//
// Access tokens are short-lived (15 minutes by default) and verified
// statelessly, which is also why they cannot be revoked early. Refresh
// tokens live for 7 days, carry a unique JTI, and are checked against a
// RevocationStore on every refresh: Revoke flips the stored record to
// inactive and every later refresh with that JTI fails, regardless of
// the token's remaining validity.
//
//	signer, _ := jwt.NewSignerFromString(secret)
//	store := auth.NewMemoryRevocationStore()
//	svc, err := auth.NewService(signer, store, auth.WithIssuer("api"))
//
//	pair, err := svc.IssueTokenPair(ctx, "user-42", "admin")
//	access, err := svc.RefreshAccessToken(ctx, pair.RefreshToken)
//
// NewRedisRevocationStore shares revocation state across processes.
package auth
