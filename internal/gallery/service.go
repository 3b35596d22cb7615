// Package gallery implements the file operations behind the dashboard: listing,
// MIME-validated uploads into the category folders, metadata reads, deletion
// and streamed downloads.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/medhub/gallery-backend/internal/googledrive"
)

// ErrInvalidCategory marks a request naming a category outside Images,
// Videos or Docs.
var ErrInvalidCategory = errors.New("invalid category")

// ErrUnsupportedMediaType marks an upload whose declared MIME type is not
// allowed in the target category.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// docMimeTypes is the exact allow-list for the Docs category. Images and
// Videos are matched by MIME prefix instead.
var docMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
}

// StagedUpload is a fully received upload sitting in the staging directory.
// The service removes Path on every outcome.
type StagedUpload struct {
	Name     string
	MimeType string
	Path     string
}

// Service runs gallery operations against a per-request Drive client.
type Service struct {
	registry *googledrive.Registry
}

// NewService creates a gallery Service backed by the category registry.
func NewService(registry *googledrive.Registry) *Service {
	return &Service{registry: registry}
}

// List returns the files under folderID when given, otherwise under the
// category's registered folder. With neither param the whole drive is listed.
// Ordering is whatever Drive returns.
func (s *Service) List(ctx context.Context, client *googledrive.Client, category, folderID string) ([]googledrive.File, error) {
	if folderID == "" && category != "" {
		id, ok := s.registry.FolderID(category)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
		}
		folderID = id
	}
	return client.List(ctx, folderID)
}

// Upload validates the staged file against the category's MIME allow-list and
// streams it into the category folder under its original name. The staged
// file is removed whether the upload is accepted, rejected or fails.
func (s *Service) Upload(ctx context.Context, client *googledrive.Client, category string, staged StagedUpload) (*googledrive.File, error) {
	defer os.Remove(staged.Path)

	folderID, ok := s.registry.FolderID(category)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if !mimeAllowed(category, staged.MimeType) {
		return nil, fmt.Errorf("%w: %s in %s", ErrUnsupportedMediaType, staged.MimeType, category)
	}

	f, err := os.Open(staged.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open staged upload: %w", err)
	}
	defer f.Close()

	return client.Upload(ctx, staged.Name, staged.MimeType, folderID, f)
}

// Get returns a single file's metadata.
func (s *Service) Get(ctx context.Context, client *googledrive.Client, fileID string) (*googledrive.File, error) {
	return client.Get(ctx, fileID)
}

// Delete removes the file remotely. Deleting an already-deleted file surfaces
// the Drive not-found error rather than succeeding silently.
func (s *Service) Delete(ctx context.Context, client *googledrive.Client, fileID string) error {
	return client.Delete(ctx, fileID)
}

// Download opens a streamed download of the file under its current remote
// name.
func (s *Service) Download(ctx context.Context, client *googledrive.Client, fileID string) (*googledrive.Download, error) {
	return client.Download(ctx, fileID)
}

func mimeAllowed(category, mimeType string) bool {
	switch category {
	case "Images":
		return strings.HasPrefix(mimeType, "image/")
	case "Videos":
		return strings.HasPrefix(mimeType, "video/")
	case "Docs":
		return docMimeTypes[mimeType]
	}
	return false
}
