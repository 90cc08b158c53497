package ports

import (
	"time"

	"github.com/google/uuid"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer mints opaque, collision-resistant tokens for the email
// verification and password reset flows.
type TokenIssuer interface {
	NewToken() string
}

// TokenUse distinguishes access from refresh credentials inside one signer.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

type AuthClaims struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	TokenID   uuid.UUID `json:"jti"`
	TokenUse  string    `json:"token_use"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	KeyID     string    `json:"kid"`
}

type TokenSigner interface {
	Sign(claims AuthClaims) (string, error)
	ParseAndValidate(token string) (AuthClaims, error)
}
