package middleware

import (
	"log/slog"

	"chatty/internal/delivery/api/cookie"
	deliverycontext "chatty/internal/delivery/context"
	domainerrors "chatty/internal/domain/errors"
	"chatty/internal/domain/service"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// AuthMiddlewareParams holds dependencies for AuthMiddleware, injected by Fx.
type AuthMiddlewareParams struct {
	fx.In

	TokenService service.TokenService
	Cookie       *cookie.Session
	Logger       *slog.Logger
}

// AuthMiddleware authenticates requests by their session cookie.
type AuthMiddleware struct {
	tokenSvc service.TokenService
	cookie   *cookie.Session
	logger   *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(params AuthMiddlewareParams) *AuthMiddleware {
	return &AuthMiddleware{
		tokenSvc: params.TokenService,
		cookie:   params.Cookie,
		logger:   params.Logger,
	}
}

// Authenticate validates the session cookie and records the user id on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionCookie, err := c.Cookie(m.cookie.Name())
		if err != nil || sessionCookie.Value == "" {
			return errors.Wrap(domainerrors.ErrUnauthenticated, "no session cookie")
		}

		claims, err := m.tokenSvc.Validate(sessionCookie.Value)
		if err != nil {
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).
				Debug("Rejected session token", slog.Any("error", err))

			return errors.Wrap(domainerrors.ErrUnauthenticated, "invalid session token")
		}

		deliverycontext.SetUserID(c, claims.UserID)

		return next(c)
	}
}
