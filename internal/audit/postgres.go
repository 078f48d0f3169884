package audit

import (
	"database/sql"
	"fmt"
	"time"
)

// PostgresLogger writes events to the audit_events table.
type PostgresLogger struct {
	db      *sql.DB
	nowFunc func() time.Time
}

func NewPostgresLogger(db *sql.DB) (*PostgresLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	l := &PostgresLogger{db: db, nowFunc: time.Now}
	if err := l.ensureSchema(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *PostgresLogger) ensureSchema() error {
	const q = `
CREATE TABLE IF NOT EXISTS audit_events (
	id BIGSERIAL PRIMARY KEY,
	at TIMESTAMPTZ NOT NULL,
	actor TEXT NOT NULL,
	action TEXT NOT NULL,
	target TEXT NOT NULL DEFAULT '',
	outcome TEXT NOT NULL,
	session_id TEXT NOT NULL DEFAULT '',
	request_id TEXT NOT NULL DEFAULT '',
	detail TEXT NOT NULL DEFAULT ''
)`
	if _, err := l.db.Exec(q); err != nil {
		return fmt.Errorf("ensure audit_events schema: %w", err)
	}
	return nil
}

func (l *PostgresLogger) Log(e Event) error {
	if e.At.IsZero() {
		e.At = l.nowFunc().UTC()
	}
	const q = `
INSERT INTO audit_events (at, actor, action, target, outcome, session_id, request_id, detail)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := l.db.Exec(q, e.At, e.Actor, e.Action, e.Target, e.Outcome, e.SessionID, e.RequestID, e.Detail); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Recent returns the newest events first, at most limit of them.
func (l *PostgresLogger) Recent(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT at, actor, action, target, outcome, session_id, request_id, detail
FROM audit_events
ORDER BY id DESC
LIMIT $1`
	rows, err := l.db.Query(q, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.At, &e.Actor, &e.Action, &e.Target, &e.Outcome, &e.SessionID, &e.RequestID, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}
