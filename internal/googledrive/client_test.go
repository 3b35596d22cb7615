package googledrive

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/medhub/gallery-backend/internal/googledrive/drivetest"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

func testClient(t *testing.T, srv *drivetest.Server) *Client {
	t.Helper()
	factory := NewFactory(option.WithEndpoint(srv.URL()))
	c, err := factory.Client(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func TestClient_List_ScopedToFolder(t *testing.T) {
	srv := drivetest.New()
	defer srv.Close()
	c := testClient(t, srv)

	srv.AddFile("inside.png", "image/png", []string{"folder-1"}, nil)
	srv.AddFile("outside.png", "image/png", []string{"folder-2"}, nil)

	files, err := c.List(context.Background(), "folder-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	if files[0].Name != "inside.png" {
		t.Errorf("expected 'inside.png', got %q", files[0].Name)
	}
	if files[0].WebViewLink == "" || files[0].WebContentLink == "" {
		t.Error("expected view and content links to be populated")
	}

	q := srv.ListQueries[len(srv.ListQueries)-1]
	if !strings.Contains(q, "trashed=false") {
		t.Errorf("expected non-trashed query, got %q", q)
	}
	if !strings.Contains(q, "'folder-1' in parents") {
		t.Errorf("expected parent scope in query, got %q", q)
	}
}

func TestClient_List_Unscoped(t *testing.T) {
	srv := drivetest.New()
	defer srv.Close()
	c := testClient(t, srv)

	srv.AddFile("a.png", "image/png", []string{"x"}, nil)
	srv.AddFile("b.png", "image/png", []string{"y"}, nil)

	files, err := c.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("expected 2 files, got %d", len(files))
	}
}

func TestClient_Upload(t *testing.T) {
	srv := drivetest.New()
	defer srv.Close()
	c := testClient(t, srv)

	f, err := c.Upload(context.Background(), "scan.pdf", "application/pdf", "folder-docs", strings.NewReader("%PDF-1.4 test"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if f.ID == "" {
		t.Fatal("expected uploaded file id")
	}
	if f.Name != "scan.pdf" {
		t.Errorf("expected name 'scan.pdf', got %q", f.Name)
	}
	if f.MimeType != "application/pdf" {
		t.Errorf("expected mimeType 'application/pdf', got %q", f.MimeType)
	}

	stored, ok := srv.Lookup(f.ID)
	if !ok {
		t.Fatal("uploaded file not stored")
	}
	if string(stored.Content) != "%PDF-1.4 test" {
		t.Errorf("stored content mismatch: %q", stored.Content)
	}
	if len(stored.Parents) != 1 || stored.Parents[0] != "folder-docs" {
		t.Errorf("expected parent 'folder-docs', got %v", stored.Parents)
	}
}

func TestClient_Get_NotFound(t *testing.T) {
	srv := drivetest.New()
	defer srv.Close()
	c := testClient(t, srv)

	_, err := c.Get(context.Background(), "missing-id")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_Delete_SecondDeleteSurfacesNotFound(t *testing.T) {
	srv := drivetest.New()
	defer srv.Close()
	c := testClient(t, srv)

	id := srv.AddFile("gone.txt", "text/plain", nil, []byte("x"))

	if err := c.Delete(context.Background(), id); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	err := c.Delete(context.Background(), id)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestClient_Download(t *testing.T) {
	srv := drivetest.New()
	defer srv.Close()
	c := testClient(t, srv)

	id := srv.AddFile("lecture.mp4", "video/mp4", []string{"folder-videos"}, []byte("video-bytes"))

	dl, err := c.Download(context.Background(), id)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	defer dl.Body.Close()

	if dl.Name != "lecture.mp4" {
		t.Errorf("expected remote name 'lecture.mp4', got %q", dl.Name)
	}
	body, err := io.ReadAll(dl.Body)
	if err != nil {
		t.Fatalf("reading download body failed: %v", err)
	}
	if string(body) != "video-bytes" {
		t.Errorf("downloaded content mismatch: %q", body)
	}
}
