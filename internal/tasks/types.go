package tasks

import "ninerolesapp/nine-roles/internal/catalog"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Task struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"project_id"`
	RoleID    catalog.RoleID `json:"role_id"`
	Title     string         `json:"title"`
	Status    Status         `json:"status"`
	// EstimatedDuration is in minutes.
	EstimatedDuration int `json:"estimated_duration"`
}

type Project struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Tasks []Task `json:"tasks"`
}

func (p Project) Clone() Project {
	p.Tasks = append([]Task(nil), p.Tasks...)
	return p
}
