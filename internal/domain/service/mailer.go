package service

import "context"

// Mailer dispatches transactional email.
type Mailer interface {
	// SendPasswordResetOTP delivers a password reset code to the given address.
	SendPasswordResetOTP(ctx context.Context, to, code string) error
}
