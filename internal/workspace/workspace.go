package workspace

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"ninerolesapp/nine-roles/internal/catalog"
	"ninerolesapp/nine-roles/internal/tasks"
	"ninerolesapp/nine-roles/internal/tracker"
)

var (
	ErrUnknownRole         = errors.New("unknown role")
	ErrInvalidHealthRating = errors.New("health rating must be between 0 and 100")
	ErrNoActiveProject     = errors.New("no active project")
	ErrRequestInFlight     = errors.New("request already in flight")
)

type Options struct {
	Now          func() time.Time
	NewProjectID func() string
}

type HealthMode struct {
	Enabled bool `json:"enabled"`
	Rating  int  `json:"rating"`
}

// State is a read-only snapshot of the workspace for views.
type State struct {
	CurrentRole     catalog.Role     `json:"current_role"`
	ActiveProjectID string           `json:"active_project_id,omitempty"`
	CurrentTask     *tasks.Task      `json:"current_task,omitempty"`
	Session         *tracker.Session `json:"session,omitempty"`
	Health          HealthMode       `json:"health"`
}

// Workspace is the single source of truth for one user: their role tracker,
// projects and health settings. Every command holds mu for its whole duration,
// so commands never interleave.
type Workspace struct {
	catalog *catalog.Catalog

	mu      sync.Mutex
	tracker *tracker.Tracker
	store   *tasks.Store
	health  HealthMode

	inflightMu sync.Mutex
	inflight   map[string]bool
}

func New(cat *catalog.Catalog, opts Options) (*Workspace, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	store, err := tasks.NewStore(cat, opts.NewProjectID)
	if err != nil {
		return nil, fmt.Errorf("seed task store: %w", err)
	}
	return &Workspace{
		catalog:  cat,
		tracker:  tracker.New(cat.First().ID, opts.Now),
		store:    store,
		health:   HealthMode{Rating: 100},
		inflight: make(map[string]bool),
	}, nil
}

func (w *Workspace) StartSession(sessionID, userID string) tracker.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tracker.StartSession(sessionID, userID)
}

func (w *Workspace) EndSession() (tracker.Session, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tracker.EndSession()
}

// EndSessionIfCurrent ends the tracker session only if it is sessionID and
// still open.
func (w *Workspace) EndSessionIfCurrent(sessionID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	sess, ok := w.tracker.Session()
	if !ok || sess.ID != sessionID || sess.EndTime != nil {
		return false
	}
	_, ended := w.tracker.EndSession()
	return ended
}

// SelectRole reports whether the current role actually changed.
func (w *Workspace) SelectRole(id catalog.RoleID) (bool, error) {
	if _, ok := w.catalog.Role(id); !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownRole, id)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tracker.SelectRole(id), nil
}

func (w *Workspace) SetActiveProject(projectID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.store.Project(projectID); err != nil {
		return err
	}
	w.tracker.SetActiveProject(projectID)
	return nil
}

func (w *Workspace) UpdateTaskStatus(projectID, taskID string, status tasks.Status) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.UpdateTaskStatus(projectID, taskID, status)
}

// AddProject creates a project from the template and makes it active.
func (w *Workspace) AddProject(title string) tasks.Project {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.store.AddProject(title)
	w.tracker.SetActiveProject(p.ID)
	return p
}

func (w *Workspace) SetHealthMode(enabled bool, rating int) (HealthMode, error) {
	if rating < 0 || rating > 100 {
		return HealthMode{}, ErrInvalidHealthRating
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.health = HealthMode{Enabled: enabled, Rating: rating}
	return w.health, nil
}

func (w *Workspace) CurrentRole() catalog.Role {
	w.mu.Lock()
	id := w.tracker.CurrentRole()
	w.mu.Unlock()
	r, _ := w.catalog.Role(id)
	return r
}

func (w *Workspace) ActiveProjectID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tracker.ActiveProjectID()
}

func (w *Workspace) Projects() []tasks.Project {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Projects()
}

func (w *Workspace) Project(id string) (tasks.Project, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Project(id)
}

func (w *Workspace) Task(projectID, taskID string) (tasks.Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Task(projectID, taskID)
}

func (w *Workspace) PendingTasks() []tasks.Task {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.PendingTasks()
}

func (w *Workspace) TimeLedger() tracker.Ledger {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tracker.Ledger()
}

// CurrentTask is the active project's task for the current role.
func (w *Workspace) CurrentTask() (tasks.Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentTaskLocked()
}

func (w *Workspace) currentTaskLocked() (tasks.Task, error) {
	projectID := w.tracker.ActiveProjectID()
	if projectID == "" {
		return tasks.Task{}, ErrNoActiveProject
	}
	return w.store.TaskForRole(projectID, w.tracker.CurrentRole())
}

func (w *Workspace) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	role, _ := w.catalog.Role(w.tracker.CurrentRole())
	st := State{
		CurrentRole:     role,
		ActiveProjectID: w.tracker.ActiveProjectID(),
		Health:          w.health,
	}
	if task, err := w.currentTaskLocked(); err == nil {
		st.CurrentTask = &task
	}
	if sess, ok := w.tracker.Session(); ok {
		st.Session = &sess
	}
	return st
}

// BeginRequest marks view as having an outstanding gateway call. The returned
// func clears the mark. Different views never block each other.
func (w *Workspace) BeginRequest(view string) (func(), error) {
	w.inflightMu.Lock()
	defer w.inflightMu.Unlock()
	if w.inflight[view] {
		return nil, ErrRequestInFlight
	}
	w.inflight[view] = true
	return func() {
		w.inflightMu.Lock()
		delete(w.inflight, view)
		w.inflightMu.Unlock()
	}, nil
}
