package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"ninerolesapp/nine-roles/internal/tasks"
)

const (
	suggestionRetryMessage = "Sorry, I couldn't get a suggestion. Please try again."
	researchRetryMessage   = "Sorry, an error occurred during the research. Please try again."
)

// Gateway calls run without the workspace lock. Each view has its own
// in-flight flag, so a second click while waiting is refused with 409.
func registerSuggestionHandlers(mux *http.ServeMux, deps Deps) {
	mux.HandleFunc("/v1/suggestions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		session, ws, ok := requireWorkspace(w, r, deps)
		if !ok {
			return
		}
		var req struct {
			ProjectID string `json:"project_id"`
			TaskID    string `json:"task_id"`
		}
		// An empty body asks for the current task.
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var task tasks.Task
		var err error
		if strings.TrimSpace(req.TaskID) == "" {
			task, err = ws.CurrentTask()
		} else {
			projectID := strings.TrimSpace(req.ProjectID)
			if projectID == "" {
				projectID = ws.ActiveProjectID()
			}
			task, err = ws.Task(projectID, strings.TrimSpace(req.TaskID))
		}
		if err != nil {
			if !writeDomainError(w, err) {
				writeError(w, http.StatusInternalServerError, "resolve task failed")
			}
			return
		}
		if deps.Catalog == nil {
			writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
			return
		}
		role, ok := deps.Catalog.Role(task.RoleID)
		if !ok {
			writeError(w, http.StatusInternalServerError, "task role missing from catalog")
			return
		}

		release, err := ws.BeginRequest("suggestion:" + string(role.ID))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		defer release()

		text, err := deps.Gateway.SmartSuggestion(r.Context(), role, task)
		if err != nil {
			if deps.Logger != nil {
				deps.Logger.Warn("smart suggestion failed", "task_id", task.ID, "error", err)
			}
			auditReq(deps.Audit, r, session.Email, "suggest.task", task.ID, "failed", session.ID, err.Error())
			writeError(w, http.StatusBadGateway, suggestionRetryMessage)
			return
		}
		auditReq(deps.Audit, r, session.Email, "suggest.task", task.ID, "success", session.ID, "")
		writeJSON(w, http.StatusOK, map[string]any{
			"task_id":    task.ID,
			"role":       role.ID,
			"suggestion": text,
			"enabled":    deps.Gateway.Enabled(),
		})
	})

	mux.HandleFunc("/v1/research", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		session, ws, ok := requireWorkspace(w, r, deps)
		if !ok {
			return
		}
		var req struct {
			Topic string `json:"topic"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		topic := strings.TrimSpace(req.Topic)
		if topic == "" {
			writeError(w, http.StatusBadRequest, "topic is required")
			return
		}

		release, err := ws.BeginRequest("research")
		if err != nil {
			writeDomainError(w, err)
			return
		}
		defer release()

		text, err := deps.Gateway.Research(r.Context(), topic)
		if err != nil {
			if deps.Logger != nil {
				deps.Logger.Warn("research failed", "error", err)
			}
			auditReq(deps.Audit, r, session.Email, "suggest.research", "", "failed", session.ID, err.Error())
			writeError(w, http.StatusBadGateway, researchRetryMessage)
			return
		}
		auditReq(deps.Audit, r, session.Email, "suggest.research", "", "success", session.ID, "")
		writeJSON(w, http.StatusOK, map[string]any{
			"topic":   topic,
			"result":  text,
			"enabled": deps.Gateway.Enabled(),
		})
	})
}
