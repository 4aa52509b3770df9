// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"chatty/config"
	deliverycontext "chatty/internal/delivery/context"
	"chatty/internal/domain/entity"
	domainerrors "chatty/internal/domain/errors"
	"chatty/internal/domain/repository"
	"chatty/internal/domain/service"
	"chatty/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	defaultMinPasswordLength = 6
	defaultOTPTTL            = 10 * time.Minute
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager         repository.TransactionManager
	userRepo          repository.UserRepository
	otpRepo           repository.OTPRepository
	hasher            service.PasswordHasher
	tokenService      service.TokenService
	otpGenerator      service.OTPGenerator
	mailer            service.Mailer
	minPasswordLength int
	otpTTL            time.Duration
	now               func() time.Time
	logger            *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	OTPRepo      repository.OTPRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	OTPGenerator service.OTPGenerator
	Mailer       service.Mailer
	Config       *config.Config
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	minPasswordLength := defaultMinPasswordLength
	otpTTL := defaultOTPTTL
	if params.Config != nil && params.Config.Auth != nil {
		if params.Config.Auth.MinPasswordLength > 0 {
			minPasswordLength = params.Config.Auth.MinPasswordLength
		}
		if params.Config.Auth.OTPTTL > 0 {
			otpTTL = params.Config.Auth.OTPTTL
		}
	}

	return &authService{
		txManager:         params.TxManager,
		userRepo:          params.UserRepo,
		otpRepo:           params.OTPRepo,
		hasher:            params.Hasher,
		tokenService:      params.TokenService,
		otpGenerator:      params.OTPGenerator,
		mailer:            params.Mailer,
		minPasswordLength: minPasswordLength,
		otpTTL:            otpTTL,
		now:               time.Now,
		logger:            params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Signup creates an account and opens a session for it.
func (srv *authService) Signup(ctx context.Context, input *usecase.SignupInput) (*usecase.AuthOutput, error) {
	fullName := strings.TrimSpace(input.FullName)
	email := normalizeEmail(input.Email)

	if fullName == "" || email == "" || strings.TrimSpace(input.Password) == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("all fields are required")
	}
	if err := srv.validatePassword(input.Password); err != nil {
		return nil, err
	}

	srv.log(ctx).Debug("Starting signup", slog.String("email", email))

	_, err := srv.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		srv.log(ctx).Warn("Signup rejected, email already registered", slog.String("email", email))

		return nil, domainerrors.ErrUserAlreadyExists.WrapMessage("signup failed")
	case !errors.Is(err, repository.ErrUserNotFound):
		srv.log(ctx).Error("Failed to look up email during signup", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to find user by email")
	}

	// bcrypt is CPU-bound; keep it out of any transaction.
	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during signup", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	user := &entity.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
	}
	// The unique index decides concurrent signups for the same email.
	if err := srv.userRepo.Create(ctx, user); err != nil {
		srv.log(ctx).Warn("Failed to create user", slog.String("email", email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to create user during signup")
	}

	output, err := srv.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	srv.log(ctx).Info("User signed up", slog.Any("userID", user.ID))

	return output, nil
}

// Login verifies credentials. Unknown email and wrong password are indistinguishable to the caller.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AuthOutput, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	srv.log(ctx).Debug("Starting user login", slog.String("email", email))

	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Login failed", slog.String("email", email), slog.String("reason", "unknown email"))

			return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
		}
		srv.log(ctx).Error("Failed to look up user during login", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to find user by email")
	}

	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Login failed", slog.String("email", email), slog.String("reason", "password mismatch"))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	output, err := srv.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	srv.log(ctx).Debug("User logged in successfully", slog.Any("userID", user.ID))

	return output, nil
}

func (srv *authService) openSession(ctx context.Context, user *entity.User) (*usecase.AuthOutput, error) {
	session, err := srv.tokenService.Issue(user.ID)
	if err != nil {
		srv.log(ctx).Error("Failed to issue session token", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrTokenIssueFailed, err.Error())
	}

	return &usecase.AuthOutput{User: user.Public(), Session: session}, nil
}

// RequestPasswordReset replaces every earlier code for the email with a fresh one and mails it.
func (srv *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return domainerrors.ErrValidationFailed.WrapMessage("email is required")
	}

	if _, err := srv.userRepo.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Password reset requested for unknown email", slog.String("email", email))

			return domainerrors.ErrUserNotFound.WrapMessage("password reset request failed")
		}

		return errors.Wrap(err, "failed to find user by email")
	}

	code, err := srv.otpGenerator.Generate()
	if err != nil {
		srv.log(ctx).Error("Failed to generate otp", slog.Any("error", err))

		return errors.Wrap(domainerrors.ErrOTPGenerationFailed, err.Error())
	}

	now := srv.now()
	otp := &entity.PasswordResetOTP{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(srv.otpTTL),
		CreatedAt: now,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		otpRepo := repoFactory.OTPRepo()

		superseded, err := otpRepo.DeleteByEmail(ctx, email)
		if err != nil {
			return errors.Wrap(err, "failed to delete previous otps")
		}
		if superseded > 0 {
			srv.log(ctx).Debug("Superseded previous otps", slog.Int64("count", superseded))
		}

		return errors.Wrap(otpRepo.Create(ctx, otp), "failed to store otp")
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute otp issue transaction", slog.Any("error", err))

		return errors.Wrap(err, "failed to execute otp issue transaction")
	}

	// The record stays in place when delivery fails; a new request supersedes it.
	if err := srv.mailer.SendPasswordResetOTP(ctx, email, code); err != nil {
		srv.log(ctx).Error("Failed to deliver otp", slog.String("email", email), slog.Any("error", err))

		return errors.Wrap(domainerrors.ErrOTPDeliveryFailed, err.Error())
	}

	srv.log(ctx).Info("Password reset otp issued", slog.String("email", email))

	return nil
}

// VerifyResetOTP marks the code verified. A code verifies at most once.
func (srv *authService) VerifyResetOTP(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return domainerrors.ErrValidationFailed.WrapMessage("email and otp are required")
	}

	otp, err := srv.otpRepo.FindByEmailAndCode(ctx, email, code)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			srv.log(ctx).Warn("Otp verification failed", slog.String("email", email), slog.String("reason", "no match"))

			return errors.Wrap(domainerrors.ErrInvalidOTP, "otp verification failed")
		}

		return errors.Wrap(err, "failed to find otp")
	}

	if !otp.CanBeVerified(srv.now()) {
		srv.log(ctx).Warn("Otp verification failed", slog.String("email", email),
			slog.Bool("verified", otp.Verified), slog.Time("expiresAt", otp.ExpiresAt))

		return errors.Wrap(domainerrors.ErrInvalidOTP, "otp verification failed")
	}

	if err := srv.otpRepo.MarkVerified(ctx, otp.ID); err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			// Lost a race with a concurrent verification or a superseding request.
			return errors.Wrap(domainerrors.ErrInvalidOTP, "otp verification failed")
		}

		return errors.Wrap(err, "failed to mark otp verified")
	}

	srv.log(ctx).Info("Password reset otp verified", slog.String("email", email))

	return nil
}

// ResetPassword sets a new password after a verified, unexpired OTP and consumes every OTP for the email.
func (srv *authService) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(newPassword) == "" {
		return domainerrors.ErrValidationFailed.WrapMessage("email and new password are required")
	}
	if err := srv.validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := srv.hasher.Hash(newPassword)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during reset", slog.Any("error", err))

		return errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	now := srv.now()
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		otpRepo := repoFactory.OTPRepo()
		userRepo := repoFactory.UserRepo()

		otp, err := otpRepo.FindVerifiedByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrOTPNotFound) {
				return errors.Wrap(domainerrors.ErrOTPNotVerified, "no verified otp")
			}

			return errors.Wrap(err, "failed to find verified otp")
		}
		if !otp.AuthorizesReset(now) {
			return errors.Wrap(domainerrors.ErrOTPNotVerified, "verified otp expired")
		}

		user, err := userRepo.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound.WrapMessage("password reset failed")
			}

			return errors.Wrap(err, "failed to find user by email")
		}

		if err := userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
			return errors.Wrap(err, "failed to update password")
		}

		if _, err := otpRepo.DeleteByEmail(ctx, email); err != nil {
			return errors.Wrap(err, "failed to consume otps")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Password reset failed", slog.String("email", email), slog.Any("error", err))

		return errors.Wrap(err, "failed to execute password reset transaction")
	}

	srv.log(ctx).Info("Password reset completed", slog.String("email", email))

	return nil
}

// CheckAuth loads the user behind an authenticated session.
func (srv *authService) CheckAuth(ctx context.Context, userID uuid.UUID) (*entity.PublicUser, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Session refers to a missing user", slog.Any("userID", userID))

			return nil, errors.Wrap(domainerrors.ErrUnauthenticated, "user no longer exists")
		}

		return nil, errors.Wrap(err, "failed to find user by id")
	}

	return user.Public(), nil
}

func (srv *authService) validatePassword(password string) error {
	if len(password) < srv.minPasswordLength {
		return errors.Wrapf(domainerrors.ErrPasswordTooShort, "password must be at least %d characters", srv.minPasswordLength)
	}

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
