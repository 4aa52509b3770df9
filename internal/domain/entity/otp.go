package entity

import (
	"time"

	"github.com/google/uuid"
)

// OTPLength is the number of ASCII digits in a password reset code.
const OTPLength = 6

// PasswordResetOTP is a one-time code issued for a password reset.
// Expiry is never stored as a state; it is evaluated against ExpiresAt at every read.
type PasswordResetOTP struct {
	ID        uuid.UUID
	Email     string
	Code      string
	ExpiresAt time.Time
	Verified  bool
	CreatedAt time.Time
}

// IsExpired reports whether the code is past its validity window at the given instant.
func (o *PasswordResetOTP) IsExpired(now time.Time) bool {
	return o.ExpiresAt.Before(now)
}

// CanBeVerified reports whether the code may still be exchanged for a verified state.
func (o *PasswordResetOTP) CanBeVerified(now time.Time) bool {
	return !o.Verified && !o.IsExpired(now)
}

// AuthorizesReset reports whether the record allows a password reset at the given instant.
func (o *PasswordResetOTP) AuthorizesReset(now time.Time) bool {
	return o.Verified && !o.IsExpired(now)
}
