package auth

import (
	"time"

	"ninerolesapp/nine-roles/internal/catalog"
)

type User struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	PasswordHash string           `json:"-"`
	Roles        []catalog.RoleID `json:"roles"`
}

// Session is a logged-in user's bearer token. It is created at login or
// registration and lives only in process memory.
type Session struct {
	ID        string
	Token     string
	UserID    string
	Name      string
	Email     string
	Roles     []catalog.RoleID
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Registration struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}
