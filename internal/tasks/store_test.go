package tasks

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"ninerolesapp/nine-roles/internal/catalog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error: %v", err)
	}
	n := 0
	s, err := NewStore(cat, func() string {
		n++
		return fmt.Sprintf("proj_test%d", n)
	})
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	return s
}

func TestSeededProjects(t *testing.T) {
	s := newTestStore(t)
	projects := s.Projects()
	if len(projects) != 2 {
		t.Fatalf("expected 2 seeded projects, got %d", len(projects))
	}
	for _, p := range projects {
		for _, task := range p.Tasks {
			if task.ProjectID != p.ID {
				t.Fatalf("task %s references project %s, expected %s", task.ID, task.ProjectID, p.ID)
			}
			if !task.RoleID.Valid() {
				t.Fatalf("task %s has invalid role %q", task.ID, task.RoleID)
			}
		}
	}
}

func TestUpdateTaskStatusChangesOnlyTarget(t *testing.T) {
	s := newTestStore(t)
	before := s.Projects()

	if err := s.UpdateTaskStatus("proj1", "p1t3", StatusInProgress); err != nil {
		t.Fatalf("UpdateTaskStatus() error: %v", err)
	}
	after := s.Projects()

	if !reflect.DeepEqual(before[1], after[1]) {
		t.Fatalf("sibling project changed")
	}
	for i := range before[0].Tasks {
		want := before[0].Tasks[i]
		if want.ID == "p1t3" {
			want.Status = StatusInProgress
		}
		if !reflect.DeepEqual(want, after[0].Tasks[i]) {
			t.Fatalf("task %d: expected %+v, got %+v", i, want, after[0].Tasks[i])
		}
	}
	if before[0].Tasks[3].Status != StatusPending {
		t.Fatalf("earlier snapshot was modified: %q", before[0].Tasks[3].Status)
	}
}

func TestUpdateTaskStatusAnyDirection(t *testing.T) {
	s := newTestStore(t)
	// p1t0 starts completed; going back to pending is allowed.
	for _, st := range []Status{StatusPending, StatusCompleted, StatusInProgress, StatusPending} {
		if err := s.UpdateTaskStatus("proj1", "p1t0", st); err != nil {
			t.Fatalf("UpdateTaskStatus(%q) error: %v", st, err)
		}
		task, err := s.Task("proj1", "p1t0")
		if err != nil {
			t.Fatalf("Task() error: %v", err)
		}
		if task.Status != st {
			t.Fatalf("expected status %q, got %q", st, task.Status)
		}
	}
}

func TestUpdateTaskStatusUnknownIDs(t *testing.T) {
	s := newTestStore(t)
	before := s.Projects()

	if err := s.UpdateTaskStatus("nope", "p1t0", StatusCompleted); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
	if err := s.UpdateTaskStatus("proj1", "nope", StatusCompleted); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if err := s.UpdateTaskStatus("proj1", "p1t2", Status("done")); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if !reflect.DeepEqual(before, s.Projects()) {
		t.Fatalf("project collection changed after failed updates")
	}
}

func TestAddProjectFromTemplate(t *testing.T) {
	s := newTestStore(t)
	p := s.AddProject("My Title")

	if p.ID != "proj_test1" {
		t.Fatalf("expected generated id proj_test1, got %q", p.ID)
	}
	if len(p.Tasks) != len(catalog.FixedRoles) {
		t.Fatalf("expected %d tasks, got %d", len(catalog.FixedRoles), len(p.Tasks))
	}
	seen := make(map[catalog.RoleID]bool)
	for i, task := range p.Tasks {
		if seen[task.RoleID] {
			t.Fatalf("role %q appears twice", task.RoleID)
		}
		seen[task.RoleID] = true
		if !strings.Contains(task.Title, "My Title") {
			t.Fatalf("task title %q does not contain project title", task.Title)
		}
		if task.ID != fmt.Sprintf("proj_test1t%d", i) {
			t.Fatalf("unexpected task id %q", task.ID)
		}
		if task.Status != StatusPending || task.ProjectID != p.ID {
			t.Fatalf("unexpected task %+v", task)
		}
	}
	if p.Tasks[0].Title != `Thinker task for "My Title"` {
		t.Fatalf("unexpected first title %q", p.Tasks[0].Title)
	}
	if p.Tasks[5].EstimatedDuration != 300 {
		t.Fatalf("expected editor estimate 300, got %d", p.Tasks[5].EstimatedDuration)
	}

	projects := s.Projects()
	if len(projects) != 3 || projects[2].ID != p.ID {
		t.Fatalf("expected new project appended last, got %d projects", len(projects))
	}
}

func TestAddProjectDefaultIDsAreUnique(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error: %v", err)
	}
	s, err := NewStore(cat, nil)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	ids := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		p := s.AddProject("rapid")
		if _, dup := ids[p.ID]; dup {
			t.Fatalf("duplicate project id %q", p.ID)
		}
		ids[p.ID] = struct{}{}
	}
}

func TestPendingTasksAndTaskForRole(t *testing.T) {
	s := newTestStore(t)
	pending := s.PendingTasks()
	// proj1 has 7 pending, proj2 has 7 pending.
	if len(pending) != 14 {
		t.Fatalf("expected 14 pending tasks, got %d", len(pending))
	}
	for _, task := range pending {
		if task.Status != StatusPending {
			t.Fatalf("non-pending task in list: %+v", task)
		}
	}

	task, err := s.TaskForRole("proj2", catalog.Designer)
	if err != nil {
		t.Fatalf("TaskForRole() error: %v", err)
	}
	if task.ID != "p2t_designer" {
		t.Fatalf("expected p2t_designer, got %q", task.ID)
	}
	if _, err := s.TaskForRole("proj2", catalog.Observer); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound for proj2 observer, got %v", err)
	}
	if _, err := s.Project("missing"); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}
