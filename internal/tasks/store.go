package tasks

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"ninerolesapp/nine-roles/internal/catalog"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidStatus   = errors.New("invalid task status")
)

// Store owns the projects of one workspace. Projects are appended in creation
// order and never removed; tasks keep their template order.
type Store struct {
	template []catalog.TaskTemplate
	newID    func() string

	mu       sync.RWMutex
	projects []Project
}

// NewStore seeds a store from the catalog. newID may be nil, in which case
// project ids are "proj_" followed by a random UUID.
func NewStore(cat *catalog.Catalog, newID func() string) (*Store, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if newID == nil {
		newID = newProjectID
	}

	projects := make([]Project, 0, len(cat.Projects))
	for _, sp := range cat.Projects {
		p := Project{ID: sp.ID, Title: sp.Title, Tasks: make([]Task, 0, len(sp.Tasks))}
		for _, st := range sp.Tasks {
			status := Status(st.Status)
			if status == "" {
				status = StatusPending
			}
			if !status.Valid() {
				return nil, fmt.Errorf("seed task %s: %w: %q", st.ID, ErrInvalidStatus, st.Status)
			}
			p.Tasks = append(p.Tasks, Task{
				ID:                st.ID,
				ProjectID:         sp.ID,
				RoleID:            st.Role,
				Title:             st.Title,
				Status:            status,
				EstimatedDuration: st.EstimatedMinutes,
			})
		}
		projects = append(projects, p)
	}

	return &Store{
		template: append([]catalog.TaskTemplate(nil), cat.Template...),
		newID:    newID,
		projects: projects,
	}, nil
}

func newProjectID() string {
	return "proj_" + uuid.New().String()
}

// UpdateTaskStatus sets the status of one task. Any valid status may replace
// any other. On error nothing is modified.
func (s *Store) UpdateTaskStatus(projectID, taskID string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pi := s.indexLocked(projectID)
	if pi < 0 {
		return ErrProjectNotFound
	}
	p := s.projects[pi]
	ti := -1
	for i, t := range p.Tasks {
		if t.ID == taskID {
			ti = i
			break
		}
	}
	if ti < 0 {
		return ErrTaskNotFound
	}

	// Copy on write so earlier snapshots keep their values.
	updated := append([]Task(nil), p.Tasks...)
	updated[ti].Status = status
	s.projects[pi].Tasks = updated
	return nil
}

// AddProject instantiates the task template for a new project and appends it.
// Any title is accepted; callers decide whether blank titles are allowed.
func (s *Store) AddProject(title string) Project {
	id := s.newID()
	p := Project{ID: id, Title: title, Tasks: make([]Task, 0, len(s.template))}
	for i, tmpl := range s.template {
		p.Tasks = append(p.Tasks, Task{
			ID:                fmt.Sprintf("%st%d", id, i),
			ProjectID:         id,
			RoleID:            tmpl.Role,
			Title:             fmt.Sprintf("%s task for \"%s\"", tmpl.Role, title),
			Status:            StatusPending,
			EstimatedDuration: tmpl.EstimatedMinutes,
		})
	}

	s.mu.Lock()
	s.projects = append(s.projects, p)
	s.mu.Unlock()

	return p.Clone()
}

func (s *Store) Projects() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p.Clone())
	}
	return out
}

func (s *Store) Project(id string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pi := s.indexLocked(id)
	if pi < 0 {
		return Project{}, ErrProjectNotFound
	}
	return s.projects[pi].Clone(), nil
}

func (s *Store) Task(projectID, taskID string) (Task, error) {
	p, err := s.Project(projectID)
	if err != nil {
		return Task{}, err
	}
	for _, t := range p.Tasks {
		if t.ID == taskID {
			return t, nil
		}
	}
	return Task{}, ErrTaskNotFound
}

// TaskForRole returns the first task in the project assigned to role.
func (s *Store) TaskForRole(projectID string, role catalog.RoleID) (Task, error) {
	p, err := s.Project(projectID)
	if err != nil {
		return Task{}, err
	}
	for _, t := range p.Tasks {
		if t.RoleID == role {
			return t, nil
		}
	}
	return Task{}, ErrTaskNotFound
}

// PendingTasks flattens every pending task across all projects, in project
// then task order.
func (s *Store) PendingTasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, 0)
	for _, p := range s.projects {
		for _, t := range p.Tasks {
			if t.Status == StatusPending {
				out = append(out, t)
			}
		}
	}
	return out
}

func (s *Store) indexLocked(id string) int {
	for i, p := range s.projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}
