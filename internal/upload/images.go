// Package upload validates, names and stores bracket images.
package upload

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/AdamBeresnev/tournament-history/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// MaxUploadBytes caps a whole request body.
const MaxUploadBytes = 16 << 20

var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
	"webp": {},
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// File is an uploaded file as submitted by the browser.
type File struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type Images struct {
	uploader  storage.FileUploader
	newPrefix func() string
}

func NewImages(uploader storage.FileUploader) *Images {
	return &Images{
		uploader: uploader,
		newPrefix: func() string {
			return uuid.NewString()[:8]
		},
	}
}

// IsAllowed reports whether filename has one of the accepted image extensions.
func IsAllowed(filename string) bool {
	_, ok := allowedExtensions[extension(filename)]
	return ok
}

// extension returns the lowercased text after the last dot, or "" without one.
func extension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// SecureFilename strips a submitted filename down to a plain ASCII name that
// is safe to place inside the upload folder.
func SecureFilename(filename string) string {
	decomposed := norm.NFKD.String(filename)

	var b strings.Builder
	for _, r := range decomposed {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}

	ascii := strings.NewReplacer("/", " ", `\`, " ").Replace(b.String())
	joined := strings.Join(strings.Fields(ascii), "_")
	return strings.Trim(unsafeFilenameChars.ReplaceAllString(joined, ""), "._")
}

func accepted(file *File) bool {
	return file != nil && file.Body != nil && file.Filename != "" && IsAllowed(file.Filename)
}

// StoredName builds "{prefix}_{safe name}" for an accepted filename.
func (im *Images) StoredName(filename string) string {
	ext := extension(filename)
	safe := SecureFilename(filename)
	if safe == "" || extension(safe) != ext {
		safe = "image." + ext
	}
	return im.newPrefix() + "_" + safe
}

// Store saves file and returns its stored name. A missing file or a file with
// a rejected extension is skipped and yields nil without an error.
func (im *Images) Store(ctx context.Context, file *File) (*string, error) {
	if !accepted(file) {
		return nil, nil
	}

	name := im.StoredName(file.Filename)
	if _, err := im.uploader.Upload(ctx, name, file.ContentType, file.Body); err != nil {
		return nil, fmt.Errorf("store image %q: %w", file.Filename, err)
	}
	return &name, nil
}

// Replace deletes oldName and stores file in its place. When file is missing
// or rejected nothing happens and nil means "keep the old image".
func (im *Images) Replace(ctx context.Context, oldName *string, file *File) (*string, error) {
	if !accepted(file) {
		return nil, nil
	}
	if err := im.Remove(ctx, oldName); err != nil {
		return nil, err
	}
	return im.Store(ctx, file)
}

// Remove deletes the named image. Nil, empty and already missing are fine.
func (im *Images) Remove(ctx context.Context, name *string) error {
	if name == nil || *name == "" {
		return nil
	}
	if err := im.uploader.Delete(ctx, *name); err != nil {
		return fmt.Errorf("remove image %q: %w", *name, err)
	}
	return nil
}

func (im *Images) URL(name string) string {
	return im.uploader.GetPublicURL(name)
}
