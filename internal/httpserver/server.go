package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"ninerolesapp/nine-roles/internal/audit"
	"ninerolesapp/nine-roles/internal/auth"
	"ninerolesapp/nine-roles/internal/catalog"
	"ninerolesapp/nine-roles/internal/config"
	"ninerolesapp/nine-roles/internal/suggest"
	"ninerolesapp/nine-roles/internal/tasks"
	"ninerolesapp/nine-roles/internal/workspace"
)

type AuthService interface {
	Register(in auth.Registration) (auth.Session, error)
	Login(email, password string) (auth.Session, error)
	ValidateToken(token string) (auth.Session, error)
	Logout(token string) (auth.Session, error)
}

type WorkspaceRegistry interface {
	Open(userID, sessionID string) (*workspace.Workspace, error)
	Get(userID string) (*workspace.Workspace, bool)
	Close(userID, sessionID string) bool
}

type AuditLogger interface {
	Log(e audit.Event) error
}

type Deps struct {
	Auth       AuthService
	Workspaces WorkspaceRegistry
	Catalog    *catalog.Catalog
	Gateway    suggest.Gateway
	Audit      AuditLogger
	Logger     *slog.Logger
}

type Server struct {
	httpServer *http.Server
}

func New(cfg config.HTTPConfig, deps Deps) *Server {
	handler := NewHandler(deps)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      loggingMiddleware(deps.Logger, handler),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func NewHandler(deps Deps) http.Handler {
	if deps.Gateway == nil {
		deps.Gateway = suggest.Disabled{}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if deps.Auth == nil || deps.Workspaces == nil || deps.Catalog == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.HandleFunc("/v1/info", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":             "nine-roles-api",
			"version":             "0.1.0",
			"suggestions_enabled": deps.Gateway.Enabled(),
		})
	})

	registerAuthHandlers(mux, deps)
	registerRoleHandlers(mux, deps)
	registerWorkspaceHandlers(mux, deps)
	registerProjectHandlers(mux, deps)
	registerSuggestionHandlers(mux, deps)

	return mux
}

func requireSession(w http.ResponseWriter, r *http.Request, authSvc AuthService) (auth.Session, bool) {
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
		return auth.Session{}, false
	}
	token, err := extractBearerToken(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
		return auth.Session{}, false
	}

	session, err := authSvc.ValidateToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return auth.Session{}, false
	}
	return session, true
}

// requireWorkspace resolves the caller's workspace. A valid token whose
// workspace is gone gets a fresh one bound to the same login session.
func requireWorkspace(w http.ResponseWriter, r *http.Request, deps Deps) (auth.Session, *workspace.Workspace, bool) {
	session, ok := requireSession(w, r, deps.Auth)
	if !ok {
		return auth.Session{}, nil, false
	}
	if deps.Workspaces == nil {
		writeError(w, http.StatusServiceUnavailable, "workspace service unavailable")
		return auth.Session{}, nil, false
	}
	if ws, ok := deps.Workspaces.Get(session.UserID); ok {
		return session, ws, true
	}
	ws, err := deps.Workspaces.Open(session.UserID, session.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "open workspace failed")
		return auth.Session{}, nil, false
	}
	return session, ws, true
}

func extractBearerToken(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// writeDomainError maps workspace and task store errors to responses. It
// returns false for errors it does not know.
func writeDomainError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, tasks.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, "project not found")
	case errors.Is(err, tasks.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	case errors.Is(err, tasks.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid task status")
	case errors.Is(err, workspace.ErrUnknownRole):
		writeError(w, http.StatusBadRequest, "unknown role")
	case errors.Is(err, workspace.ErrInvalidHealthRating):
		writeError(w, http.StatusBadRequest, workspace.ErrInvalidHealthRating.Error())
	case errors.Is(err, workspace.ErrNoActiveProject):
		writeError(w, http.StatusConflict, "no active project")
	case errors.Is(err, workspace.ErrRequestInFlight):
		writeError(w, http.StatusConflict, "a request for this view is already in progress")
	default:
		return false
	}
	return true
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func loggingMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if reqID == "" {
			reqID = newRequestID()
		}
		w.Header().Set("X-Request-Id", reqID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, reqID))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if log == nil {
			return
		}
		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.LogAttrs(r.Context(), level, "http request",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

type requestIDKey struct{}

func newRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func requestIDFromContext(ctx context.Context) string {
	v := ctx.Value(requestIDKey{})
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func clientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func auditReq(a AuditLogger, r *http.Request, actor, action, target, outcome, sessionID, detail string) {
	parts := []string{
		"ip=" + clientIP(r),
		"ua=" + strings.TrimSpace(r.UserAgent()),
	}
	if strings.TrimSpace(detail) != "" {
		parts = append(parts, "detail="+strings.TrimSpace(detail))
	}
	auditSafe(a, audit.Event{
		Actor:     actor,
		Action:    action,
		Target:    target,
		Outcome:   outcome,
		SessionID: sessionID,
		RequestID: requestIDFromContext(r.Context()),
		Detail:    strings.Join(parts, " | "),
	})
}

func auditSafe(a AuditLogger, e audit.Event) {
	if a == nil {
		return
	}
	_ = a.Log(e)
}
