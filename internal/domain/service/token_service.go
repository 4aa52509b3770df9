package service

import (
	"time"

	"chatty/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTokenType is the value of the "type" claim carried by session tokens.
const SessionTokenType = "session"

// Claims defines the custom claims of a session token.
type Claims struct {
	UserID uuid.UUID `json:"-"`
	Type   string    `json:"type"`
	jwt.RegisteredClaims
}

// TokenService issues and validates the signed session credential.
type TokenService interface {
	// Issue creates a signed session token for the user.
	Issue(userID uuid.UUID) (*entity.Session, error)

	// Validate checks signature, expiry and claim shape of a token string.
	// Every failure is reported as domainerrors.ErrUnauthenticated.
	Validate(tokenString string) (*Claims, error)

	// SessionTTL returns the validity window of issued tokens.
	SessionTTL() time.Duration
}
