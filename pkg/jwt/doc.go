// Package jwt signs and verifies JSON Web Tokens with HMAC-SHA256,
// using only the standard library.
//
// A Signer wraps the shared secret and accepts any JSON-serializable
// claims value; RegisteredClaims mirrors the RFC 7519 registered fields
// and validates exp/nbf. Verification recomputes the signature over the
// presented header and payload and compares the encoded signatures with
// crypto/subtle in constant time before decoding anything, so tampered
// tokens fail with ErrSignatureMismatch and never surface altered
// claims. Tokens whose header names any algorithm other than HS256 are
// rejected with ErrUnexpectedAlgorithm.
//
//	signer, err := jwt.NewSignerFromString("super-secret")
//	if err != nil {
//		return err
//	}
//
//	token, err := signer.Sign(jwt.RegisteredClaims{
//		Subject:   "user-42",
//		ExpiresAt: time.Now().Add(15 * time.Minute).Unix(),
//	})
//
//	var claims jwt.RegisteredClaims
//	if err := signer.Verify(token, &claims); err != nil {
//		// errors.Is against ErrTokenExpired, ErrSignatureMismatch, ...
//	}
//
// Middleware extracts a token per request (Bearer header by default,
// cookie and custom-header extractors available), verifies it, and puts
// the claims in the request context for handlers downstream.
package jwt
