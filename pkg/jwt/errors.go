package jwt

import "errors"

var (
	ErrMissingSecret       = errors.New("jwt: missing signing secret")
	ErrNilClaims           = errors.New("jwt: nil claims")
	ErrMalformedToken      = errors.New("jwt: malformed token")
	ErrSignatureMismatch   = errors.New("jwt: signature mismatch")
	ErrUnexpectedAlgorithm = errors.New("jwt: unexpected signing algorithm")
	ErrTokenExpired        = errors.New("jwt: token is expired")
	ErrTokenNotYetValid    = errors.New("jwt: token is not valid yet")
)
