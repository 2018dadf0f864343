package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

type diskUploader struct {
	dir           string
	publicBaseURL string
}

// NewDiskUploader stores files in dir, creating it when missing. Public URLs
// are publicBaseURL + "/" + key.
func NewDiskUploader(dir, publicBaseURL string) (FileUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload folder %s: %w", dir, err)
	}
	return &diskUploader{dir: dir, publicBaseURL: publicBaseURL}, nil
}

func (u *diskUploader) filePath(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid upload key %q", key)
	}
	return filepath.Join(u.dir, key), nil
}

func (u *diskUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	p, err := u.filePath(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file (key: %s): %w", key, err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write upload file (key: %s): %w", key, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close upload file (key: %s): %w", key, err)
	}

	return &UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *diskUploader) Delete(ctx context.Context, key string) error {
	p, err := u.filePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete upload file (key: %s): %w", key, err)
	}
	return nil
}

func (u *diskUploader) GetPublicURL(key string) string {
	if key == "" {
		return ""
	}
	return path.Join("/", u.publicBaseURL, key)
}
