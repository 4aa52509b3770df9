package handler

import (
	"log/slog"
	"net/http"

	"chatty/internal/delivery/api/response"
	deliverycontext "chatty/internal/delivery/context"
	domainerrors "chatty/internal/domain/errors"
	"chatty/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// ProfileHandlerParams holds dependencies for ProfileHandler, injected by Fx.
type ProfileHandlerParams struct {
	fx.In

	ProfileUC usecase.ProfileUsecase
	Logger    *slog.Logger
}

// ProfileHandler serves profile updates of the authenticated user.
type ProfileHandler struct {
	profileUC usecase.ProfileUsecase
	logger    *slog.Logger
}

// NewProfileHandler is the constructor for ProfileHandler.
func NewProfileHandler(params ProfileHandlerParams) *ProfileHandler {
	return &ProfileHandler{
		profileUC: params.ProfileUC,
		logger:    params.Logger,
	}
}

// UpdateProfileRequest represents the request body for a profile picture update.
type UpdateProfileRequest struct {
	ProfilePic string `json:"profilePic"`
}

// UpdateProfile handles PUT /api/auth/update-profile.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	userID, ok := deliverycontext.GetUserID(c)
	if !ok {
		return errors.Wrap(domainerrors.ErrUnauthenticated, "no authenticated user")
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return errors.Wrap(domainerrors.ErrValidationFailed, "malformed request body")
	}

	user, err := h.profileUC.UpdateProfilePic(c.Request().Context(), userID, req.ProfilePic)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, user)
}
