package service

import "context"

// UploadedImage describes an image stored on the image host.
type UploadedImage struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// ImageHost stores user-supplied images and returns their public location.
type ImageHost interface {
	// Upload stores the raw image bytes under a generated key.
	Upload(ctx context.Context, data []byte, contentType string) (*UploadedImage, error)
}
