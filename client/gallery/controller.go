// Package gallery holds the dashboard's browsing state machine: category
// tabs, folder navigation with breadcrumbs, the upload lifecycle and the
// delete confirmation step. It is pure Go so it compiles to wasm; the actual
// HTTP calls stay on the JavaScript side.
package gallery

// Categories are the dashboard tabs, matching the backend folders.
var Categories = []string{"Images", "Videos", "Docs"}

// Crumb is one breadcrumb entry: a folder the user navigated into.
type Crumb struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FileInfo mirrors the backend's file metadata.
type FileInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	MimeType       string `json:"mimeType"`
	WebViewLink    string `json:"webViewLink,omitempty"`
	WebContentLink string `json:"webContentLink,omitempty"`
}

// Upload tracks an in-flight upload.
type Upload struct {
	Name     string `json:"name"`
	Progress int    `json:"progress"`
}

// Controller is the gallery state machine. Mutating methods return true when
// the caller should refetch the current listing from the backend.
type Controller struct {
	activeCategory   string
	currentFolderID  string
	folderStack      []Crumb
	files            []FileInfo
	pendingUpload    *Upload
	pendingDeleteID  string
	authorizationURL string
	lastError        string
	needsAuth        bool
}

// NewController returns a controller on the Images tab at the category top.
func NewController() *Controller {
	return &Controller{activeCategory: Categories[0]}
}

// ActiveCategory returns the selected tab.
func (c *Controller) ActiveCategory() string { return c.activeCategory }

// CurrentFolderID returns the folder the listing should be fetched from, or
// empty at the category top.
func (c *Controller) CurrentFolderID() string { return c.currentFolderID }

// Breadcrumbs returns the folder trail below the category top.
func (c *Controller) Breadcrumbs() []Crumb { return c.folderStack }

// Files returns the current listing.
func (c *Controller) Files() []FileInfo { return c.files }

// LastError returns the dismissible error message, if any.
func (c *Controller) LastError() string { return c.lastError }

// NeedsAuth reports whether the session expired and the user must
// re-authenticate.
func (c *Controller) NeedsAuth() bool { return c.needsAuth }

// AuthorizationURL returns the consent URL supplied via RequireAuth.
func (c *Controller) AuthorizationURL() string { return c.authorizationURL }

// PendingUpload returns the in-flight upload, if any.
func (c *Controller) PendingUpload() *Upload { return c.pendingUpload }

// PendingDelete returns the file id awaiting delete confirmation.
func (c *Controller) PendingDelete() (string, bool) {
	return c.pendingDeleteID, c.pendingDeleteID != ""
}

// SwitchCategory selects a tab and resets folder navigation. Unknown
// categories are ignored.
func (c *Controller) SwitchCategory(category string) bool {
	if !validCategory(category) {
		return false
	}
	c.activeCategory = category
	c.currentFolderID = ""
	c.folderStack = nil
	return true
}

// EnterFolder descends into a folder from the current listing.
func (c *Controller) EnterFolder(id, name string) bool {
	if id == "" {
		return false
	}
	c.folderStack = append(c.folderStack, Crumb{ID: id, Name: name})
	c.currentFolderID = id
	return true
}

// NavigateBreadcrumb truncates the trail to k entries; k == 0 returns to the
// category top. Out-of-range k is ignored.
func (c *Controller) NavigateBreadcrumb(k int) bool {
	if k < 0 || k > len(c.folderStack) {
		return false
	}
	c.folderStack = c.folderStack[:k]
	if k == 0 {
		c.currentFolderID = ""
	} else {
		c.currentFolderID = c.folderStack[k-1].ID
	}
	return true
}

// ApplyListing replaces the current listing with a fetched one.
func (c *Controller) ApplyListing(files []FileInfo) {
	c.files = files
}

// Fail records a backend failure. A 401 switches to the re-auth state; any
// other status sets a dismissible error.
func (c *Controller) Fail(status int, message string) {
	if status == 401 {
		c.needsAuth = true
		return
	}
	c.lastError = message
}

// DismissError clears the dismissible error.
func (c *Controller) DismissError() {
	c.lastError = ""
}

// RequireAuth records the consent URL to offer the user after a 401.
func (c *Controller) RequireAuth(url string) {
	c.needsAuth = true
	c.authorizationURL = url
}

// Authenticated clears the re-auth state after a successful OAuth round trip.
func (c *Controller) Authenticated() {
	c.needsAuth = false
	c.authorizationURL = ""
}

// BeginUpload starts tracking an upload at zero progress.
func (c *Controller) BeginUpload(name string) {
	c.pendingUpload = &Upload{Name: name}
}

// Progress advances the upload progress. Values are clamped to 0..100 and
// never move backwards.
func (c *Controller) Progress(pct int) {
	if c.pendingUpload == nil {
		return
	}
	if pct > 100 {
		pct = 100
	}
	if pct > c.pendingUpload.Progress {
		c.pendingUpload.Progress = pct
	}
}

// FinishUpload clears the upload selection and asks for a refetch.
func (c *Controller) FinishUpload() bool {
	c.pendingUpload = nil
	return true
}

// CancelUpload drops the in-flight upload without refetching.
func (c *Controller) CancelUpload() {
	c.pendingUpload = nil
}

// ConfirmDelete stages a file for deletion pending user confirmation.
func (c *Controller) ConfirmDelete(id string) {
	c.pendingDeleteID = id
}

// CancelDelete aborts the staged deletion.
func (c *Controller) CancelDelete() {
	c.pendingDeleteID = ""
}

// DeleteConfirmed finalizes the staged deletion and asks for a refetch.
// Returns false when nothing was staged.
func (c *Controller) DeleteConfirmed() bool {
	if c.pendingDeleteID == "" {
		return false
	}
	c.pendingDeleteID = ""
	return true
}

func validCategory(category string) bool {
	for _, known := range Categories {
		if known == category {
			return true
		}
	}
	return false
}
