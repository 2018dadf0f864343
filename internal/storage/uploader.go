package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
}

// FileUploader stores uploaded files under a flat key namespace.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	// Delete removes the object. A missing object is not an error.
	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
