package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"ninerolesapp/nine-roles/internal/auth"
)

func registerAuthHandlers(mux *http.ServeMux, deps Deps) {
	mux.HandleFunc("/v1/auth/register", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if deps.Auth == nil || deps.Workspaces == nil {
			writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
			return
		}

		var req auth.Registration
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		session, err := deps.Auth.Register(req)
		if err != nil {
			status, msg := registrationError(err)
			auditReq(deps.Audit, r, req.Email, "auth.register", "", "failed", "", err.Error())
			writeError(w, status, msg)
			return
		}
		if !openWorkspace(w, r, deps, session) {
			return
		}
		auditReq(deps.Audit, r, session.Email, "auth.register", session.UserID, "success", session.ID, "")
		writeJSON(w, http.StatusCreated, sessionPayload(session))
	})

	mux.HandleFunc("/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if deps.Auth == nil || deps.Workspaces == nil {
			writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
			return
		}

		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		session, err := deps.Auth.Login(req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				auditReq(deps.Audit, r, req.Email, "auth.login", "", "failed", "", "invalid credentials")
				writeError(w, http.StatusUnauthorized, "Invalid email or password.")
				return
			}
			auditReq(deps.Audit, r, req.Email, "auth.login", "", "failed", "", err.Error())
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}
		if !openWorkspace(w, r, deps, session) {
			return
		}
		auditReq(deps.Audit, r, session.Email, "auth.login", "", "success", session.ID, "")
		writeJSON(w, http.StatusOK, sessionPayload(session))
	})

	mux.HandleFunc("/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		session, ok := requireSession(w, r, deps.Auth)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, userPayload(session))
	})

	mux.HandleFunc("/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if deps.Auth == nil {
			writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
			return
		}
		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		session, err := deps.Auth.Logout(token)
		if err != nil {
			auditReq(deps.Audit, r, "", "auth.logout", "", "failed", "", "invalid token")
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		// Logging out stops the role timer; the time so far is charged.
		if deps.Workspaces != nil {
			deps.Workspaces.Close(session.UserID, session.ID)
		}
		auditReq(deps.Audit, r, session.Email, "auth.logout", "", "success", session.ID, "")
		w.WriteHeader(http.StatusNoContent)
	})
}

func openWorkspace(w http.ResponseWriter, r *http.Request, deps Deps, session auth.Session) bool {
	if _, err := deps.Workspaces.Open(session.UserID, session.ID); err != nil {
		if deps.Logger != nil {
			deps.Logger.Error("open workspace failed", "user_id", session.UserID, "error", err)
		}
		auditReq(deps.Audit, r, session.Email, "workspace.open", session.UserID, "failed", session.ID, err.Error())
		writeError(w, http.StatusInternalServerError, "open workspace failed")
		return false
	}
	return true
}

func registrationError(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrPasswordMismatch):
		return http.StatusBadRequest, "Passwords do not match."
	case errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest, "Password must be at least 6 characters."
	case errors.Is(err, auth.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, "An account with this email already exists."
	default:
		return http.StatusInternalServerError, "registration failed"
	}
}

func userPayload(session auth.Session) map[string]any {
	return map[string]any{
		"id":         session.UserID,
		"name":       session.Name,
		"email":      session.Email,
		"roles":      session.Roles,
		"expires_at": session.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func sessionPayload(session auth.Session) map[string]any {
	return map[string]any{
		"token":      session.Token,
		"session_id": session.ID,
		"user": map[string]any{
			"id":    session.UserID,
			"name":  session.Name,
			"email": session.Email,
			"roles": session.Roles,
		},
		"expires_at": session.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
