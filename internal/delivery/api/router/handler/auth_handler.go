// Package handler contains the HTTP handlers of the API.
package handler

import (
	"log/slog"
	"net/http"

	"chatty/internal/delivery/api/cookie"
	"chatty/internal/delivery/api/response"
	deliverycontext "chatty/internal/delivery/context"
	domainerrors "chatty/internal/domain/errors"
	"chatty/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	AuthUC usecase.AuthUsecase
	Cookie *cookie.Session
	Logger *slog.Logger
}

// AuthHandler serves the account and password reset endpoints.
type AuthHandler struct {
	authUC usecase.AuthUsecase
	cookie *cookie.Session
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler.
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		authUC: params.AuthUC,
		cookie: params.Cookie,
		logger: params.Logger,
	}
}

// SignupRequest represents the request body for signup.
type SignupRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RequestResetRequest represents the request body for requesting a reset code.
type RequestResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyOTPRequest represents the request body for verifying a reset code.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// ResetPasswordRequest represents the request body for setting a new password.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// bind decodes and validates a request body.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errors.Wrap(domainerrors.ErrValidationFailed, "malformed request body")
	}

	return c.Validate(req)
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := h.authUC.Signup(c.Request().Context(), &usecase.SignupInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.cookie.Set(c.Response(), out.Session)

	return response.Success(c, http.StatusCreated, out.User)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := h.authUC.Login(c.Request().Context(), &usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.cookie.Set(c.Response(), out.Session)

	return response.Success(c, http.StatusOK, out.User)
}

// Logout handles POST /api/auth/logout. It always succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.cookie.Clear(c.Response())

	return response.Message(c, "Logged out successfully")
}

// RequestPasswordReset handles POST /api/auth/request-reset.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req RequestResetRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.authUC.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return response.Message(c, "OTP sent to email")
}

// VerifyResetOTP handles POST /api/auth/verify-otp.
func (h *AuthHandler) VerifyResetOTP(c echo.Context) error {
	var req VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return errors.Wrap(domainerrors.ErrValidationFailed, "malformed request body")
	}
	// A malformed code is just a wrong code.
	if err := c.Validate(&req); err != nil {
		return errors.Wrap(domainerrors.ErrInvalidOTP, err.Error())
	}

	if err := h.authUC.VerifyResetOTP(c.Request().Context(), req.Email, req.OTP); err != nil {
		return err
	}

	return response.Message(c, "OTP verified")
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.authUC.ResetPassword(c.Request().Context(), req.Email, req.NewPassword); err != nil {
		return err
	}

	return response.Message(c, "Password reset successful")
}

// CheckAuth handles GET /api/auth/check.
func (h *AuthHandler) CheckAuth(c echo.Context) error {
	userID, ok := deliverycontext.GetUserID(c)
	if !ok {
		return errors.Wrap(domainerrors.ErrUnauthenticated, "no authenticated user")
	}

	user, err := h.authUC.CheckAuth(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, user)
}
