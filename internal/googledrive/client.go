// Package googledrive wraps the Drive v3 API for the gallery proxy: listing,
// streamed upload/download, metadata and deletion, plus the category folder
// registry.
package googledrive

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// FolderMimeType discriminates navigable folders from leaf files.
const FolderMimeType = "application/vnd.google-apps.folder"

const fileFields = "id, name, mimeType, webViewLink, webContentLink"

// File is the subset of Drive file metadata the gallery exposes.
type File struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	MimeType       string `json:"mimeType"`
	WebViewLink    string `json:"webViewLink,omitempty"`
	WebContentLink string `json:"webContentLink,omitempty"`
}

// Download is a streamed file download: the remote name plus the raw body.
// The caller owns Body and must close it.
type Download struct {
	Name        string
	ContentType string
	Body        io.ReadCloser
}

// Client performs Drive operations with one session's credentials.
type Client struct {
	service *drive.Service
}

// Factory builds per-request Clients. The base options are fixed at startup;
// tests use them to point the client at a fake Drive server.
type Factory struct {
	opts []option.ClientOption
}

// NewFactory returns a Factory with the given base client options.
func NewFactory(opts ...option.ClientOption) *Factory {
	return &Factory{opts: opts}
}

// Client returns a Drive client authenticated by the given token source.
func (f *Factory) Client(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, f.opts...)
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive client: %w", err)
	}
	return &Client{service: srv}, nil
}

// List returns the non-trashed files under folderID, or across the whole
// drive when folderID is empty. Ordering is whatever the API returns.
func (c *Client) List(ctx context.Context, folderID string) ([]File, error) {
	q := "trashed=false"
	if folderID != "" {
		q += fmt.Sprintf(" and '%s' in parents", folderID)
	}

	r, err := c.service.Files.List().
		Q(q).
		Fields(googleapi.Field("files(" + fileFields + ")")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list files: %w", wrapAPIError(err))
	}

	files := make([]File, 0, len(r.Files))
	for _, f := range r.Files {
		files = append(files, File{
			ID:             f.Id,
			Name:           f.Name,
			MimeType:       f.MimeType,
			WebViewLink:    f.WebViewLink,
			WebContentLink: f.WebContentLink,
		})
	}
	return files, nil
}

// FindFolder looks up a non-trashed folder by exact name.
func (c *Client) FindFolder(ctx context.Context, name string) (string, bool, error) {
	q := fmt.Sprintf("mimeType='%s' and name='%s' and trashed=false", FolderMimeType, name)
	r, err := c.service.Files.List().
		Q(q).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return "", false, fmt.Errorf("unable to search for folder %q: %w", name, wrapAPIError(err))
	}
	if len(r.Files) == 0 {
		return "", false, nil
	}
	return r.Files[0].Id, true, nil
}

// CreateFolder creates a folder at the drive root and returns its id.
func (c *Client) CreateFolder(ctx context.Context, name string) (string, error) {
	f := &drive.File{
		Name:     name,
		MimeType: FolderMimeType,
	}
	res, err := c.service.Files.Create(f).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("unable to create folder %q: %w", name, wrapAPIError(err))
	}
	return res.Id, nil
}

// Upload streams r into a new file named name under parentID.
func (c *Client) Upload(ctx context.Context, name, mimeType, parentID string, r io.Reader) (*File, error) {
	f := &drive.File{
		Name:    name,
		Parents: []string{parentID},
	}
	res, err := c.service.Files.Create(f).
		Media(r, googleapi.ContentType(mimeType)).
		Fields("id, name, mimeType").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to upload file: %w", wrapAPIError(err))
	}
	return &File{ID: res.Id, Name: res.Name, MimeType: res.MimeType}, nil
}

// Get returns a single file's metadata.
func (c *Client) Get(ctx context.Context, fileID string) (*File, error) {
	f, err := c.service.Files.Get(fileID).
		Fields(googleapi.Field(fileFields)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapAPIError(err)
	}
	return &File{
		ID:             f.Id,
		Name:           f.Name,
		MimeType:       f.MimeType,
		WebViewLink:    f.WebViewLink,
		WebContentLink: f.WebContentLink,
	}, nil
}

// Delete removes the file remotely. Deleting an already-deleted id surfaces
// the API's not-found error.
func (c *Client) Delete(ctx context.Context, fileID string) error {
	if err := c.service.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return wrapAPIError(err)
	}
	return nil
}

// Download fetches the file's current name and opens a byte stream of its
// content. The name comes from a fresh metadata read, never a cached value.
func (c *Client) Download(ctx context.Context, fileID string) (*Download, error) {
	meta, err := c.service.Files.Get(fileID).
		Fields("name, mimeType").
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapAPIError(err)
	}

	resp, err := c.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, wrapAPIError(err)
	}

	return &Download{
		Name:        meta.Name,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}
