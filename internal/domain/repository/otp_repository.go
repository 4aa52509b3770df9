package repository

import (
	"context"
	"errors"

	"chatty/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrOTPNotFound is returned when no OTP record matches a lookup or a conditional update.
var ErrOTPNotFound = errors.New("otp record not found")

// OTPRepository stores password reset codes. Expiry is not filtered here;
// callers evaluate it against their own clock.
type OTPRepository interface {
	// Create persists a new OTP record.
	Create(ctx context.Context, otp *entity.PasswordResetOTP) error

	// FindByEmailAndCode returns the most recent record for the email carrying the given code.
	FindByEmailAndCode(ctx context.Context, email, code string) (*entity.PasswordResetOTP, error)

	// FindVerifiedByEmail returns the most recent verified record for the email.
	FindVerifiedByEmail(ctx context.Context, email string) (*entity.PasswordResetOTP, error)

	// MarkVerified flips the verified flag of a still-unverified record.
	// It returns ErrOTPNotFound when the record is gone or was already verified.
	MarkVerified(ctx context.Context, id uuid.UUID) error

	// DeleteByEmail removes every record for the email and reports how many were removed.
	DeleteByEmail(ctx context.Context, email string) (int64, error)
}
