package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ninerolesapp/nine-roles/internal/catalog"
)

// PostgresUserStore keeps accounts in the accounts table so registered users
// survive a restart. Workspaces and login sessions stay in memory.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) (*PostgresUserStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	s := &PostgresUserStore{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresUserStore) ensureSchema() error {
	const q = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	roles JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("ensure accounts schema: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) GetByEmail(email string) (User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return User{}, ErrUserNotFound
	}

	var u User
	var rolesJSON []byte
	const q = `SELECT id, name, email, password_hash, roles FROM accounts WHERE email = $1`
	if err := s.db.QueryRow(q, email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &rolesJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("query account: %w", err)
	}
	if len(rolesJSON) > 0 {
		if err := json.Unmarshal(rolesJSON, &u.Roles); err != nil {
			return User{}, fmt.Errorf("decode roles: %w", err)
		}
	}
	return u, nil
}

// Create inserts a new account. Accounts are never updated, so an existing
// email yields ErrEmailTaken.
func (s *PostgresUserStore) Create(user User) error {
	user.Email = normalizeEmail(user.Email)
	user.Name = strings.TrimSpace(user.Name)
	if user.ID == "" || user.Email == "" || user.PasswordHash == "" {
		return fmt.Errorf("id, email, and password hash are required")
	}
	roles := user.Roles
	if roles == nil {
		roles = []catalog.RoleID{}
	}
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}

	const q = `
INSERT INTO accounts (id, name, email, password_hash, roles)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (email) DO NOTHING`
	res, err := s.db.Exec(q, user.ID, user.Name, user.Email, user.PasswordHash, rolesJSON)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	if n == 0 {
		return ErrEmailTaken
	}
	return nil
}
