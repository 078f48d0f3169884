package workspace

import (
	"math"
	"strings"

	"ninerolesapp/nine-roles/internal/catalog"
	"ninerolesapp/nine-roles/internal/tasks"
)

type RoleTime struct {
	RoleID  catalog.RoleID `json:"role_id"`
	Name    string         `json:"name"`
	Minutes float64        `json:"minutes"`
}

// Dashboard is the observer's summary of one project.
type Dashboard struct {
	ProjectID string  `json:"project_id"`
	Title     string  `json:"title"`
	Completed int     `json:"completed"`
	Open      int     `json:"open"`
	Total     int     `json:"total"`
	Progress  float64 `json:"progress"`
	// TimeByRole lists only roles with recorded time, in catalog order.
	TimeByRole []RoleTime `json:"time_by_role"`
}

func (w *Workspace) Dashboard(projectID string) (Dashboard, error) {
	w.mu.Lock()
	p, err := w.store.Project(projectID)
	ledger := w.tracker.Ledger()
	w.mu.Unlock()
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{ProjectID: p.ID, Title: p.Title, Total: len(p.Tasks), TimeByRole: make([]RoleTime, 0)}
	for _, t := range p.Tasks {
		switch t.Status {
		case tasks.StatusCompleted:
			d.Completed++
		case tasks.StatusPending, tasks.StatusInProgress:
			d.Open++
		}
	}
	if d.Total > 0 {
		d.Progress = float64(d.Completed) / float64(d.Total) * 100
	}

	projectTimes := ledger[projectID]
	for _, role := range w.catalog.Roles {
		minutes := math.Round(float64(projectTimes[role.ID])/60000*10) / 10
		if minutes <= 0 {
			continue
		}
		d.TimeByRole = append(d.TimeByRole, RoleTime{
			RoleID:  role.ID,
			Name:    strings.TrimPrefix(role.Name, "The "),
			Minutes: minutes,
		})
	}
	return d, nil
}
