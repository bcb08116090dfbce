package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Header values fixed by this implementation. Only HS256 is supported;
// anything else in a presented token is rejected outright to rule out
// algorithm confusion.
const (
	headerType      = "JWT"
	headerAlgorithm = "HS256"
)

type header struct {
	Algorithm string `json:"alg"`
	Type      string `json:"typ"`
}

// RegisteredClaims holds the RFC 7519 registered claim set. Temporal
// claims are Unix seconds; zero values count as unset and are skipped
// during validation.
type RegisteredClaims struct {
	ID        string `json:"jti,omitempty"`
	Subject   string `json:"sub,omitempty"`
	Issuer    string `json:"iss,omitempty"`
	Audience  string `json:"aud,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	NotBefore int64  `json:"nbf,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

// Validate checks the temporal claims against the current time.
func (c RegisteredClaims) Validate() error {
	now := time.Now().Unix()

	if c.ExpiresAt > 0 && now > c.ExpiresAt {
		return ErrTokenExpired
	}
	if c.NotBefore > 0 && now < c.NotBefore {
		return ErrTokenNotYetValid
	}
	return nil
}

// Signer signs and verifies HS256 tokens with a shared secret. The
// secret stays in memory only and should be at least 32 bytes.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer from the given secret.
func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	return &Signer{secret: secret}, nil
}

// NewSignerFromString creates a Signer from a string secret.
func NewSignerFromString(secret string) (*Signer, error) {
	return NewSigner([]byte(secret))
}

// Sign serializes claims and returns the signed compact token
// (base64url header, payload, and signature joined by dots). Claims may
// be any JSON-serializable value.
func (s *Signer) Sign(claims any) (string, error) {
	if claims == nil {
		return "", ErrNilClaims
	}

	headerJSON, err := json.Marshal(header{Algorithm: headerAlgorithm, Type: headerType})
	if err != nil {
		return "", fmt.Errorf("marshal header: %w", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) +
		"." + base64.RawURLEncoding.EncodeToString(claimsJSON)

	return signingInput + "." + s.sign(signingInput), nil
}

// Verify checks the token's signature and temporal claims, then decodes
// the payload into claims. The signature check runs before any decoding
// so untrusted bytes are never parsed, and compares the encoded
// signatures in constant time.
func (s *Signer) Verify(token string, claims any) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return ErrMalformedToken
	}

	signingInput := parts[0] + "." + parts[1]
	expected := s.sign(signingInput)
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(expected)) != 1 {
		return ErrSignatureMismatch
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	var hdr header
	if err := json.Unmarshal(headerJSON, &hdr); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	if hdr.Algorithm != headerAlgorithm {
		return ErrUnexpectedAlgorithm
	}

	claimsJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	if err := json.Unmarshal(claimsJSON, claims); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	// Temporal validation always runs against the registered claim set,
	// so exp/nbf hold even when the caller decodes into a plain map.
	var registered RegisteredClaims
	if err := json.Unmarshal(claimsJSON, &registered); err == nil {
		if err := registered.Validate(); err != nil {
			return err
		}
	}

	if v, ok := claims.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// sign returns the base64url HMAC-SHA256 of the signing input.
func (s *Signer) sign(signingInput string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signingInput))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
