package usecase

import (
	"context"

	"chatty/internal/domain/entity"

	"github.com/google/uuid"
)

// ProfileUsecase manages profile data of the authenticated user.
type ProfileUsecase interface {
	// UpdateProfilePic uploads an image given as a data URL or raw base64 and stores its URL.
	UpdateProfilePic(ctx context.Context, userID uuid.UUID, payload string) (*entity.PublicUser, error)
}
