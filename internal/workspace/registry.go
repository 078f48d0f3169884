package workspace

import (
	"fmt"
	"sync"

	"ninerolesapp/nine-roles/internal/catalog"
)

// Registry keeps one workspace per user for the life of the process.
type Registry struct {
	catalog *catalog.Catalog
	opts    Options

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewRegistry(cat *catalog.Catalog, opts Options) *Registry {
	return &Registry{
		catalog:    cat,
		opts:       opts,
		workspaces: make(map[string]*Workspace),
	}
}

// Open returns the user's workspace, creating a freshly seeded one on first
// use, and starts a tracker session for sessionID.
func (r *Registry) Open(userID, sessionID string) (*Workspace, error) {
	r.mu.Lock()
	ws, ok := r.workspaces[userID]
	if !ok {
		var err error
		ws, err = New(r.catalog, r.opts)
		if err != nil {
			r.mu.Unlock()
			return nil, fmt.Errorf("create workspace: %w", err)
		}
		r.workspaces[userID] = ws
	}
	r.mu.Unlock()

	ws.StartSession(sessionID, userID)
	return ws, nil
}

func (r *Registry) Get(userID string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.workspaces[userID]
	return ws, ok
}

// Close flushes the running role timer of the user's workspace when sessionID
// is still its current tracker session. A stale session id is ignored so it
// cannot pause a newer login. The workspace itself is kept so projects
// survive a logout.
func (r *Registry) Close(userID, sessionID string) bool {
	ws, ok := r.Get(userID)
	if !ok {
		return false
	}
	return ws.EndSessionIfCurrent(sessionID)
}

// CloseAll flushes every workspace, used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := make([]*Workspace, 0, len(r.workspaces))
	for _, ws := range r.workspaces {
		all = append(all, ws)
	}
	r.mu.Unlock()

	for _, ws := range all {
		ws.EndSession()
	}
}
