// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"chatty/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// SignupInput defines the data required to create an account.
type SignupInput struct {
	FullName string
	Email    string
	Password string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
}

// --- Output DTOs ---

// AuthOutput is returned by a successful signup or login.
type AuthOutput struct {
	User    *entity.PublicUser
	Session *entity.Session
}

// AuthUsecase defines account and password reset operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	Signup(ctx context.Context, input *SignupInput) (*AuthOutput, error)
	Login(ctx context.Context, input *LoginInput) (*AuthOutput, error)

	// RequestPasswordReset issues a fresh OTP, superseding earlier ones, and mails it.
	RequestPasswordReset(ctx context.Context, email string) error

	// VerifyResetOTP marks a matching, unexpired OTP as verified.
	VerifyResetOTP(ctx context.Context, email, code string) error

	// ResetPassword replaces the password once a verified OTP exists and consumes it.
	ResetPassword(ctx context.Context, email, newPassword string) error

	// CheckAuth returns the user behind an authenticated session.
	CheckAuth(ctx context.Context, userID uuid.UUID) (*entity.PublicUser, error)
}
