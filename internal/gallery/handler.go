package gallery

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/medhub/gallery-backend/internal/auth"
	"github.com/medhub/gallery-backend/internal/config"
	"github.com/medhub/gallery-backend/internal/googledrive"
	"golang.org/x/oauth2"
)

// Handler exposes the authenticated file routes.
type Handler struct {
	service *Service
	drive   *googledrive.Factory
	cfg     config.Config
}

// NewHandler creates the gallery Handler.
func NewHandler(service *Service, drive *googledrive.Factory, cfg config.Config) *Handler {
	return &Handler{service: service, drive: drive, cfg: cfg}
}

// RegisterRoutes registers the file routes behind the session guard.
func (h *Handler) RegisterRoutes(e *echo.Echo, guard echo.MiddlewareFunc) {
	g := e.Group("/api", guard)
	g.GET("/files", h.handleList)
	g.POST("/upload", h.handleUpload)
	g.GET("/file/:fileId", h.handleGet)
	g.DELETE("/delete/:fileId", h.handleDelete)
	g.GET("/download/:fileId", h.handleDownload)
}

// client builds a Drive client from the guard-refreshed request token.
func (h *Handler) client(c echo.Context) (*googledrive.Client, error) {
	ts := oauth2.StaticTokenSource(auth.TokenFrom(c))
	return h.drive.Client(c.Request().Context(), ts)
}

func (h *Handler) handleList(c echo.Context) error {
	client, err := h.client(c)
	if err != nil {
		return h.fail(c, err)
	}

	files, err := h.service.List(c.Request().Context(), client, c.QueryParam("type"), c.QueryParam("folderId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"files": files})
}

func (h *Handler) handleUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file uploaded"})
	}

	staged, err := h.stage(fh)
	if err != nil {
		return h.fail(c, err)
	}

	client, err := h.client(c)
	if err != nil {
		os.Remove(staged.Path)
		return h.fail(c, err)
	}

	file, err := h.service.Upload(c.Request().Context(), client, c.FormValue("type"), staged)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"file": file})
}

// stage copies the multipart part into the staging directory under a random
// name. The declared content type travels with it; validation happens in the
// service.
func (h *Handler) stage(fh *multipart.FileHeader) (StagedUpload, error) {
	src, err := fh.Open()
	if err != nil {
		return StagedUpload{}, fmt.Errorf("unable to read upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
		return StagedUpload{}, fmt.Errorf("unable to create staging dir: %w", err)
	}

	path := filepath.Join(h.cfg.UploadDir, uuid.NewString())
	dst, err := os.Create(path)
	if err != nil {
		return StagedUpload{}, fmt.Errorf("unable to stage upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return StagedUpload{}, fmt.Errorf("unable to stage upload: %w", err)
	}

	return StagedUpload{
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Path:     path,
	}, nil
}

func (h *Handler) handleGet(c echo.Context) error {
	client, err := h.client(c)
	if err != nil {
		return h.fail(c, err)
	}

	file, err := h.service.Get(c.Request().Context(), client, c.Param("fileId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"file": file})
}

func (h *Handler) handleDelete(c echo.Context) error {
	client, err := h.client(c)
	if err != nil {
		return h.fail(c, err)
	}

	if err := h.service.Delete(c.Request().Context(), client, c.Param("fileId")); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleDownload(c echo.Context) error {
	client, err := h.client(c)
	if err != nil {
		return h.fail(c, err)
	}

	dl, err := h.service.Download(c.Request().Context(), client, c.Param("fileId"))
	if err != nil {
		return h.fail(c, err)
	}
	defer dl.Body.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", dl.Name))
	contentType := dl.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, contentType, dl.Body)
}

// fail maps service errors onto the dashboard's status codes and JSON error
// body.
func (h *Handler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrInvalidCategory):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid type"})
	case errors.Is(err, ErrUnsupportedMediaType):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid file type for this folder"})
	case errors.Is(err, googledrive.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, googledrive.ErrForbidden):
		return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
	}
	log.Printf("gallery operation failed: %v", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
