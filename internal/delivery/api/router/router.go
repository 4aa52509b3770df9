// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"chatty/config"
	"chatty/internal/delivery/api/middleware"
	"chatty/internal/delivery/api/router/handler"
	"chatty/internal/delivery/realtime"
	"chatty/internal/infra/media"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	ProfileHandler *handler.ProfileHandler
	MediaHandler   *handler.MediaHandler
	SocketHandler  *realtime.Handler
	AuthMiddleware *middleware.AuthMiddleware
	Config         *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	profileHandler *handler.ProfileHandler
	mediaHandler   *handler.MediaHandler
	socketHandler  *realtime.Handler
	authMiddleware *middleware.AuthMiddleware
	config         *config.Config
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		profileHandler: params.ProfileHandler,
		mediaHandler:   params.MediaHandler,
		socketHandler:  params.SocketHandler,
		authMiddleware: params.AuthMiddleware,
		config:         params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	authGroup := e.Group("/api/auth")
	{
		authGroup.POST("/signup", r.authHandler.Signup)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/logout", r.authHandler.Logout)
		authGroup.POST("/request-reset", r.authHandler.RequestPasswordReset)
		authGroup.POST("/verify-otp", r.authHandler.VerifyResetOTP)
		authGroup.POST("/reset-password", r.authHandler.ResetPassword)

		authGroup.PUT("/update-profile", r.profileHandler.UpdateProfile, r.authMiddleware.Authenticate)
		authGroup.GET("/check", r.authHandler.CheckAuth, r.authMiddleware.Authenticate)
	}

	e.GET(media.DefaultPublicPath+"/*", r.mediaHandler.Serve)

	e.GET(r.socketPath(), r.socketHandler.Serve)
}

func (r *router) socketPath() string {
	if r.config.Realtime != nil && r.config.Realtime.Path != "" {
		return r.config.Realtime.Path
	}

	return "/socket"
}
