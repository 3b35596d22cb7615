// Package drivetest provides an in-memory fake of the Drive v3 REST subset
// the gallery uses: file listing with query filters, metadata reads, simple
// multipart uploads, media downloads and deletion. Tests point the real Drive
// client at it with option.WithEndpoint.
package drivetest

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
)

// FolderMimeType mirrors the Drive folder sentinel.
const FolderMimeType = "application/vnd.google-apps.folder"

// File is a stored fake file.
type File struct {
	ID       string
	Name     string
	MimeType string
	Parents  []string
	Trashed  bool
	Content  []byte
}

// Server is the fake Drive API. Exported counters let tests assert on the
// traffic they caused.
type Server struct {
	mu     sync.Mutex
	files  map[string]*File
	nextID int

	// Hits counts every request that reached the fake.
	Hits int
	// ListQueries records the q parameter of each files.list call.
	ListQueries []string
	// CreatedFolders records folder names in creation order.
	CreatedFolders []string
	// CreateFailure, when non-zero, makes every file creation fail with this
	// HTTP status.
	CreateFailure int

	httpSrv *httptest.Server
}

// New starts a fake Drive server.
func New() *Server {
	s := &Server{files: make(map[string]*File)}
	s.httpSrv = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL is the endpoint to hand to option.WithEndpoint.
func (s *Server) URL() string { return s.httpSrv.URL }

// Close shuts the fake down.
func (s *Server) Close() { s.httpSrv.Close() }

// AddFile seeds a file and returns its id.
func (s *Server) AddFile(name, mimeType string, parents []string, content []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.files[id] = &File{ID: id, Name: name, MimeType: mimeType, Parents: parents, Content: content}
	return id
}

// Lookup returns the stored file, if any.
func (s *Server) Lookup(id string) (*File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	return f, ok
}

// FileCount returns the number of stored, non-trashed files.
func (s *Server) FileCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.files {
		if !f.Trashed {
			n++
		}
	}
	return n
}

func (s *Server) newID() string {
	s.nextID++
	return fmt.Sprintf("fake-%d", s.nextID)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.Hits++
	s.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/upload/drive/v3")
	path = strings.TrimPrefix(path, "/drive/v3")

	switch {
	case path == "/files" && r.Method == http.MethodGet:
		s.handleList(w, r)
	case path == "/files" && r.Method == http.MethodPost:
		s.handleCreate(w, r)
	case strings.HasPrefix(path, "/files/") && r.Method == http.MethodGet:
		s.handleGet(w, r, strings.TrimPrefix(path, "/files/"))
	case strings.HasPrefix(path, "/files/") && r.Method == http.MethodDelete:
		s.handleDelete(w, strings.TrimPrefix(path, "/files/"))
	default:
		writeAPIError(w, http.StatusNotFound, fmt.Sprintf("unhandled route %s %s", r.Method, r.URL.Path))
	}
}

var (
	nameRe   = regexp.MustCompile(`name='([^']*)'`)
	parentRe = regexp.MustCompile(`'([^']*)' in parents`)
	mimeRe   = regexp.MustCompile(`mimeType='([^']*)'`)
)

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	s.mu.Lock()
	s.ListQueries = append(s.ListQueries, q)

	var name, parent, mimeType string
	if m := nameRe.FindStringSubmatch(q); m != nil {
		name = m[1]
	}
	if m := parentRe.FindStringSubmatch(q); m != nil {
		parent = m[1]
	}
	if m := mimeRe.FindStringSubmatch(q); m != nil {
		mimeType = m[1]
	}

	var out []map[string]any
	for _, f := range s.files {
		if f.Trashed {
			continue
		}
		if name != "" && f.Name != name {
			continue
		}
		if mimeType != "" && f.MimeType != mimeType {
			continue
		}
		if parent != "" && !hasParent(f, parent) {
			continue
		}
		out = append(out, fileJSON(f))
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{"files": out})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	failure := s.CreateFailure
	s.mu.Unlock()
	if failure != 0 {
		writeAPIError(w, failure, "create failed")
		return
	}

	ct := r.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "bad content type: "+err.Error())
		return
	}

	var meta struct {
		Name     string   `json:"name"`
		MimeType string   `json:"mimeType"`
		Parents  []string `json:"parents"`
	}
	var content []byte
	var contentType string

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(r.Body, params["boundary"])

		metaPart, err := mr.NextPart()
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, "missing metadata part")
			return
		}
		if err := json.NewDecoder(metaPart).Decode(&meta); err != nil {
			writeAPIError(w, http.StatusBadRequest, "bad metadata: "+err.Error())
			return
		}

		mediaPart, err := mr.NextPart()
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, "missing media part")
			return
		}
		contentType = mediaPart.Header.Get("Content-Type")
		content, err = io.ReadAll(mediaPart)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, "bad media: "+err.Error())
			return
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
			writeAPIError(w, http.StatusBadRequest, "bad metadata: "+err.Error())
			return
		}
	}

	if meta.MimeType == "" {
		meta.MimeType = contentType
	}

	s.mu.Lock()
	id := s.newID()
	f := &File{ID: id, Name: meta.Name, MimeType: meta.MimeType, Parents: meta.Parents, Content: content}
	s.files[id] = f
	if f.MimeType == FolderMimeType {
		s.CreatedFolders = append(s.CreatedFolders, f.Name)
	}
	resp := fileJSON(f)
	s.mu.Unlock()

	writeJSON(w, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	s.mu.Lock()
	f, ok := s.files[id]
	s.mu.Unlock()
	if !ok {
		writeAPIError(w, http.StatusNotFound, "File not found: "+id)
		return
	}

	if r.URL.Query().Get("alt") == "media" {
		w.Header().Set("Content-Type", f.MimeType)
		w.WriteHeader(http.StatusOK)
		w.Write(f.Content)
		return
	}

	writeJSON(w, fileJSON(f))
}

func (s *Server) handleDelete(w http.ResponseWriter, id string) {
	s.mu.Lock()
	_, ok := s.files[id]
	if ok {
		delete(s.files, id)
	}
	s.mu.Unlock()

	if !ok {
		writeAPIError(w, http.StatusNotFound, "File not found: "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func hasParent(f *File, parent string) bool {
	for _, p := range f.Parents {
		if p == parent {
			return true
		}
	}
	return false
}

func fileJSON(f *File) map[string]any {
	return map[string]any{
		"id":             f.ID,
		"name":           f.Name,
		"mimeType":       f.MimeType,
		"parents":        f.Parents,
		"webViewLink":    "https://drive.example.com/view/" + f.ID,
		"webContentLink": "https://drive.example.com/content/" + f.ID,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
