package impl

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"chatty/config"
	deliverycontext "chatty/internal/delivery/context"
	"chatty/internal/domain/entity"
	domainerrors "chatty/internal/domain/errors"
	"chatty/internal/domain/repository"
	"chatty/internal/domain/service"
	"chatty/internal/usecase"
	"chatty/internal/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const defaultMaxImageBytes = 5 << 20

// profileService implements the ProfileUsecase interface.
type profileService struct {
	userRepo  repository.UserRepository
	imageHost service.ImageHost
	maxBytes  int64
	logger    *slog.Logger
}

// ProfileServiceParams holds dependencies for ProfileService, injected by Fx.
type ProfileServiceParams struct {
	fx.In

	UserRepo  repository.UserRepository
	ImageHost service.ImageHost
	Config    *config.Config
	Logger    *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(params ProfileServiceParams) usecase.ProfileUsecase {
	maxBytes := int64(defaultMaxImageBytes)
	if params.Config != nil && params.Config.Media != nil && params.Config.Media.MaxBytes > 0 {
		maxBytes = params.Config.Media.MaxBytes
	}

	return &profileService{
		userRepo:  params.UserRepo,
		imageHost: params.ImageHost,
		maxBytes:  maxBytes,
		logger:    params.Logger,
	}
}

func (srv *profileService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// UpdateProfilePic uploads the image to the image host and stores the returned URL on the user.
func (srv *profileService) UpdateProfilePic(ctx context.Context, userID uuid.UUID, payload string) (*entity.PublicUser, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, errors.Wrap(domainerrors.ErrProfilePicRequired, "empty payload")
	}

	data, contentType, err := decodeImagePayload(payload)
	if err != nil {
		srv.log(ctx).Warn("Rejected profile picture", slog.Any("userID", userID), slog.Any("error", err))

		return nil, err
	}
	if int64(len(data)) > srv.maxBytes {
		return nil, errors.Wrapf(domainerrors.ErrImageTooLarge, "image is %s, limit %s",
			util.FormatBytes(int64(len(data))), util.FormatBytes(srv.maxBytes))
	}

	if _, err := srv.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrUnauthenticated, "user no longer exists")
		}

		return nil, errors.Wrap(err, "failed to find user by id")
	}

	uploaded, err := srv.imageHost.Upload(ctx, data, contentType)
	if err != nil {
		srv.log(ctx).Error("Failed to upload profile picture", slog.Any("userID", userID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrImageUploadFailed, err.Error())
	}

	if err := srv.userRepo.UpdateProfilePic(ctx, userID, uploaded.URL); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrUnauthenticated, "user no longer exists")
		}

		return nil, errors.Wrap(err, "failed to update profile pic")
	}

	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reload user")
	}

	srv.log(ctx).Info("Profile picture updated", slog.Any("userID", userID), slog.String("key", uploaded.Key))

	return user.Public(), nil
}

// allowedImageTypes are the raster formats accepted for profile pictures.
// Markup based formats such as SVG can carry script and are never stored.
var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// decodeImagePayload accepts "data:<mime>;base64,<data>" or bare base64 and
// returns the raw bytes with the content type sniffed from them. A declared
// type must agree with the sniffed one.
func decodeImagePayload(payload string) ([]byte, string, error) {
	declared := ""
	encoded := payload

	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		meta, body, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", errors.Wrap(domainerrors.ErrUnsupportedImage, "malformed data url")
		}
		mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
		if !isBase64 {
			return nil, "", errors.Wrap(domainerrors.ErrUnsupportedImage, "data url must be base64 encoded")
		}
		declared = strings.ToLower(strings.TrimSpace(mediaType))
		if declared == "image/jpg" {
			declared = "image/jpeg"
		}
		encoded = body
	}

	data, err := decodeBase64(encoded)
	if err != nil || len(data) == 0 {
		return nil, "", errors.Wrap(domainerrors.ErrUnsupportedImage, "invalid base64 payload")
	}

	sniffed, _, _ := strings.Cut(http.DetectContentType(data), ";")
	if !allowedImageTypes[sniffed] {
		return nil, "", errors.Wrapf(domainerrors.ErrUnsupportedImage, "content type %q", sniffed)
	}
	if declared != "" && declared != sniffed {
		return nil, "", errors.Wrapf(domainerrors.ErrUnsupportedImage, "declared %q but content is %q", declared, sniffed)
	}

	return data, sniffed, nil
}

func decodeBase64(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if data, err := base64.StdEncoding.DecodeString(encoded); err == nil {
		return data, nil
	}

	return base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
}
