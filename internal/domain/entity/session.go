package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session describes a signed session credential issued to a client.
type Session struct {
	UserID    uuid.UUID
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
