package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	deliverycontext "chatty/internal/delivery/context"
	"chatty/internal/infra/media"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// ImageStore reads stored images back.
type ImageStore interface {
	Open(ctx context.Context, key string) (*media.Object, error)
}

// MediaHandlerParams holds dependencies for MediaHandler, injected by Fx.
type MediaHandlerParams struct {
	fx.In

	Store  ImageStore
	Logger *slog.Logger
}

// MediaHandler serves uploaded images when the bucket has no public endpoint of its own.
type MediaHandler struct {
	store  ImageStore
	logger *slog.Logger
}

// NewMediaHandler is the constructor for MediaHandler.
func NewMediaHandler(params MediaHandlerParams) *MediaHandler {
	return &MediaHandler{store: params.Store, logger: params.Logger}
}

// Serve handles GET /media/*.
func (h *MediaHandler) Serve(c echo.Context) error {
	ctx := c.Request().Context()

	obj, err := h.store.Open(ctx, c.Param("*"))
	if err != nil {
		if errors.Is(err, media.ErrObjectNotFound) {
			return echo.ErrNotFound
		}

		return err
	}
	defer obj.Close()

	header := c.Response().Header()
	header.Set(echo.HeaderContentType, obj.ContentType)
	header.Set(echo.HeaderContentLength, strconv.FormatInt(obj.Size, 10))
	header.Set("Cache-Control", "public, max-age=31536000, immutable")
	header.Set(echo.HeaderXContentTypeOptions, "nosniff")
	header.Set(echo.HeaderContentSecurityPolicy, "default-src 'none'")
	c.Response().WriteHeader(http.StatusOK)

	if _, err := io.Copy(c.Response(), obj); err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, h.logger).Warn("Failed to stream image", slog.Any("error", err))
	}

	return nil
}
