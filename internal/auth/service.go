package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ninerolesapp/nine-roles/internal/catalog"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidInput       = errors.New("invalid registration input")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

const (
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLength = 72
)

type Service struct {
	users        UserStore
	cost         int
	ttl          time.Duration
	defaultRoles []catalog.RoleID
	nowFunc      func() time.Time

	sessMu   sync.RWMutex
	sessions map[string]Session
}

type ServiceConfig struct {
	BcryptCost int
	SessionTTL time.Duration
	// DefaultRoles are granted to self-registered users.
	DefaultRoles []catalog.RoleID
}

func NewService(userStore UserStore, cfg ServiceConfig) (*Service, error) {
	if userStore == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be > 0")
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	return &Service{
		users:        userStore,
		cost:         cost,
		ttl:          cfg.SessionTTL,
		defaultRoles: append([]catalog.RoleID(nil), cfg.DefaultRoles...),
		nowFunc:      time.Now,
		sessions:     make(map[string]Session),
	}, nil
}

func (s *Service) HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (s *Service) VerifyPassword(password, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
}

// ValidateRegistration applies the sign-up form rules without touching any
// state.
func ValidateRegistration(in Registration) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		return fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	if in.Password != in.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if len(in.Password) < minPasswordLength || len(in.Password) > maxPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a user with the default roles and logs them in.
func (s *Service) Register(in Registration) (Session, error) {
	if err := ValidateRegistration(in); err != nil {
		return Session{}, err
	}
	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return Session{}, err
	}
	u := User{
		ID:           "user_" + uuid.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Roles:        append([]catalog.RoleID(nil), s.defaultRoles...),
	}
	if err := s.users.Create(u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("store user: %w", err)
	}
	return s.startSession(u)
}

// CreateUser stores a user with the given password; used for the bootstrap
// account.
func (s *Service) CreateUser(name, email, password string, roles []catalog.RoleID) (User, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return User{}, err
	}
	u := User{
		ID:           "user_" + uuid.New().String(),
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		Roles:        append([]catalog.RoleID(nil), roles...),
	}
	if err := s.users.Create(u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) Login(email, password string) (Session, error) {
	u, err := s.users.GetByEmail(email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if !s.VerifyPassword(password, u.PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}
	return s.startSession(u)
}

func (s *Service) startSession(u User) (Session, error) {
	token, err := generateToken(32)
	if err != nil {
		return Session{}, fmt.Errorf("generate token: %w", err)
	}

	now := s.nowFunc()
	session := Session{
		ID:        "sid_" + uuid.New().String(),
		Token:     token,
		UserID:    u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Roles:     append([]catalog.RoleID(nil), u.Roles...),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.sessMu.Lock()
	// A user has one live login; signing in again retires the older tokens.
	for t, existing := range s.sessions {
		if existing.UserID == u.ID {
			delete(s.sessions, t)
		}
	}
	s.sessions[token] = session
	s.sessMu.Unlock()

	return session, nil
}

func (s *Service) ValidateToken(token string) (Session, error) {
	s.sessMu.RLock()
	session, ok := s.sessions[token]
	s.sessMu.RUnlock()
	if !ok {
		return Session{}, ErrInvalidToken
	}

	if s.nowFunc().After(session.ExpiresAt) {
		s.sessMu.Lock()
		delete(s.sessions, token)
		s.sessMu.Unlock()
		return Session{}, ErrInvalidToken
	}

	return session, nil
}

// Logout revokes the token and returns the session it belonged to.
func (s *Service) Logout(token string) (Session, error) {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrInvalidToken
	}
	delete(s.sessions, token)
	return session, nil
}

func generateToken(n int) (string, error) {
	if n < 16 {
		return "", fmt.Errorf("token length too short")
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
