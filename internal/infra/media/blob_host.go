// Package media stores profile pictures in a gocloud.dev blob bucket.
package media

import (
	"context"
	"io"
	"log/slog"
	"path"
	"strings"

	"chatty/config"
	deliverycontext "chatty/internal/delivery/context"
	"chatty/internal/domain/service"
	"chatty/internal/errors"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/gcsblob"  // gs:// buckets
	_ "gocloud.dev/blob/memblob"  // mem:// buckets
	_ "gocloud.dev/blob/s3blob"   // s3:// buckets
	"gocloud.dev/gcerrors"
)

const (
	defaultBucketURL = "mem://"
	// DefaultPublicPath is where the API serves objects when no public base URL is configured.
	DefaultPublicPath = "/media"
)

// ErrObjectNotFound is returned by Open for unknown keys.
var ErrObjectNotFound = errors.New("media object not found")

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// BlobHost is the image host backed by a blob bucket.
type BlobHost struct {
	bucket        *blob.Bucket
	prefix        string
	publicBaseURL string
	logger        *slog.Logger
}

// Params holds dependencies for the image host, injected by Fx.
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// NewBlobHost opens the configured bucket and closes it on shutdown.
func NewBlobHost(params Params) (*BlobHost, error) {
	cfg := params.Config.Media
	if cfg == nil {
		cfg = &config.MediaConfig{}
	}
	logger := params.Logger

	bucketURL := cfg.BucketURL
	if bucketURL == "" {
		logger.Warn("Media bucket not configured, profile pictures are kept in memory")
		bucketURL = defaultBucketURL
	}

	bucket, err := blob.OpenBucket(context.Background(), bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open media bucket %q", bucketURL)
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			logger.Info("Closing media bucket")

			return bucket.Close()
		},
	})

	logger.Info("Media bucket opened", slog.String("bucket", bucketURL))

	return newBlobHost(bucket, cfg, logger), nil
}

func newBlobHost(bucket *blob.Bucket, cfg *config.MediaConfig, logger *slog.Logger) *BlobHost {
	return &BlobHost{
		bucket:        bucket,
		prefix:        strings.Trim(cfg.Prefix, "/"),
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:        logger,
	}
}

// Upload stores the image under <prefix>/<uuid><ext> and returns its public URL.
func (h *BlobHost) Upload(ctx context.Context, data []byte, contentType string) (*service.UploadedImage, error) {
	logger := deliverycontext.GetLoggerOrDefault(ctx, h.logger)

	key := uuid.NewString() + extensions[contentType]
	if h.prefix != "" {
		key = path.Join(h.prefix, key)
	}

	err := h.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		logger.Error("Failed to upload image", slog.String("key", key), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to write image to bucket")
	}

	logger.Debug("Image uploaded", slog.String("key", key), slog.Int("size", len(data)))

	return &service.UploadedImage{
		Key:         key,
		URL:         h.publicURL(key),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func (h *BlobHost) publicURL(key string) string {
	if h.publicBaseURL == "" {
		return DefaultPublicPath + "/" + key
	}

	return h.publicBaseURL + "/" + key
}

// Object is an open stored image.
type Object struct {
	io.ReadCloser
	ContentType string
	Size        int64
}

// Open returns a reader for a stored image.
func (h *BlobHost) Open(ctx context.Context, key string) (*Object, error) {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")

	r, err := h.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, ErrObjectNotFound
		}

		return nil, errors.Wrap(err, "failed to open image")
	}

	return &Object{ReadCloser: r, ContentType: r.ContentType(), Size: r.Size()}, nil
}

// Module provides the media FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(
		NewBlobHost,
		func(h *BlobHost) service.ImageHost { return h },
	),
)
