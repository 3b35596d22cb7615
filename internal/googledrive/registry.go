package googledrive

import (
	"context"
	"fmt"
	"sync"
)

// Categories are the fixed gallery folders, in bootstrap order.
var Categories = []string{"Images", "Videos", "Docs"}

// Registry maps gallery categories to Drive folder ids. It is shared by all
// sessions (the proxy fronts a single backing account) and populated lazily
// by EnsureFolders after the first successful authentication.
type Registry struct {
	mu      sync.Mutex
	folders map[string]string
}

// NewRegistry returns an empty folder registry.
func NewRegistry() *Registry {
	return &Registry{folders: make(map[string]string)}
}

// FolderID returns the Drive folder id registered for the category.
func (r *Registry) FolderID(category string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.folders[category]
	return id, ok
}

// EnsureFolders looks up or creates each category folder and records its id.
// Holding the lock across the whole pass serializes concurrent bootstraps in
// this process, so a second caller never re-creates a folder the first one
// just made. Safe to call repeatedly; a partial failure leaves the already
// recorded entries in place.
func (r *Registry) EnsureFolders(ctx context.Context, client *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range Categories {
		if _, ok := r.folders[name]; ok {
			continue
		}

		id, found, err := client.FindFolder(ctx, name)
		if err != nil {
			return fmt.Errorf("folder bootstrap: %w", err)
		}
		if !found {
			id, err = client.CreateFolder(ctx, name)
			if err != nil {
				return fmt.Errorf("folder bootstrap: %w", err)
			}
		}
		r.folders[name] = id
	}
	return nil
}
