package tracker

import (
	"time"

	"ninerolesapp/nine-roles/internal/catalog"
)

// Ledger maps project id to role to accumulated milliseconds.
type Ledger map[string]map[catalog.RoleID]int64

// Clone returns a deep copy of the ledger.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for projectID, roles := range l {
		inner := make(map[catalog.RoleID]int64, len(roles))
		for role, ms := range roles {
			inner[role] = ms
		}
		out[projectID] = inner
	}
	return out
}

// Total sums every role entry recorded for a project.
func (l Ledger) Total(projectID string) int64 {
	var sum int64
	for _, ms := range l[projectID] {
		sum += ms
	}
	return sum
}

type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}
