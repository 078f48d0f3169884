package tracker

import (
	"time"

	"ninerolesapp/nine-roles/internal/catalog"
)

// Tracker records which role is current and how long each role has been
// worked on per project. Time is measured as wall-clock deltas between
// switches, so nothing runs in the background.
//
// A Tracker is not safe for concurrent use; callers serialize access.
type Tracker struct {
	nowFunc func() time.Time

	session         *Session
	currentRole     catalog.RoleID
	activeProjectID string
	// roleStart is zero while no session is running.
	roleStart time.Time
	ledger    Ledger
}

// New returns a tracker in the initial role with an empty ledger and no session.
func New(initial catalog.RoleID, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		nowFunc:     now,
		currentRole: initial,
		ledger:      make(Ledger),
	}
}

// StartSession opens a session for the user and arms the role timer if it is
// not already running.
func (t *Tracker) StartSession(sessionID, userID string) Session {
	now := t.nowFunc()
	t.session = &Session{ID: sessionID, UserID: userID, StartTime: now}
	if t.roleStart.IsZero() {
		t.roleStart = now
	}
	return *t.session
}

// SelectRole switches the current role. Selecting the role that is already
// current does nothing and reports false. Without a running session the
// timer stays paused; the next StartSession arms it.
func (t *Tracker) SelectRole(role catalog.RoleID) bool {
	if role == t.currentRole {
		return false
	}
	now := t.nowFunc()
	t.flush(now)
	if t.running() {
		t.roleStart = now
	}
	t.currentRole = role
	return true
}

func (t *Tracker) running() bool {
	return t.session != nil && t.session.EndTime == nil
}

// SetActiveProject charges time so far to the outgoing project and restarts
// the role timer, so a project's ledger only covers time it was active.
func (t *Tracker) SetActiveProject(projectID string) {
	if projectID == t.activeProjectID {
		return
	}
	now := t.nowFunc()
	t.flush(now)
	if !t.roleStart.IsZero() {
		t.roleStart = now
	}
	t.activeProjectID = projectID
}

// EndSession charges the running role to the active project, stamps the end
// time and pauses the timer until the next StartSession.
func (t *Tracker) EndSession() (Session, bool) {
	if t.session == nil {
		return Session{}, false
	}
	now := t.nowFunc()
	t.flush(now)
	t.roleStart = time.Time{}
	end := now
	t.session.EndTime = &end
	return *t.session, true
}

func (t *Tracker) flush(now time.Time) {
	if t.activeProjectID == "" || t.roleStart.IsZero() {
		return
	}
	elapsed := now.Sub(t.roleStart).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	roles, ok := t.ledger[t.activeProjectID]
	if !ok {
		roles = make(map[catalog.RoleID]int64)
		t.ledger[t.activeProjectID] = roles
	}
	roles[t.currentRole] += elapsed
}

func (t *Tracker) CurrentRole() catalog.RoleID {
	return t.currentRole
}

func (t *Tracker) ActiveProjectID() string {
	return t.activeProjectID
}

func (t *Tracker) Session() (Session, bool) {
	if t.session == nil {
		return Session{}, false
	}
	return *t.session, true
}

// Ledger returns a copy of the time ledger.
func (t *Tracker) Ledger() Ledger {
	return t.ledger.Clone()
}
