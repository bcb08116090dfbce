package auth

import "github.com/gatekit/gatekit/pkg/jwt"

// Token types carried in the "type" claim. Access tokens are short-lived
// and verified statelessly; refresh tokens are long-lived and checked
// against the revocation store on every use.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the claim set issued by Service. Refresh tokens carry a
// unique JTI used as the revocation key; access tokens have no
// server-side record and stay valid until they expire.
type Claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role,omitempty"`
	TokenType string `json:"type"`
}
