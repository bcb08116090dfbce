package auth

import "errors"

var (
	ErrSignerRequired      = errors.New("auth: signer is required")
	ErrStoreRequired       = errors.New("auth: revocation store is required")
	ErrUserIDRequired      = errors.New("auth: user id is required")
	ErrInvalidRefreshToken = errors.New("auth: invalid refresh token")
	ErrWrongTokenType      = errors.New("auth: wrong token type")
	ErrTokenRevoked        = errors.New("auth: refresh token revoked")
	ErrUnknownToken        = errors.New("auth: unknown refresh token")
	ErrTokenNotFound       = errors.New("auth: token record not found")
)
