package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"ninerolesapp/nine-roles/internal/catalog"
	"ninerolesapp/nine-roles/internal/tasks"
)

func registerRoleHandlers(mux *http.ServeMux, deps Deps) {
	mux.HandleFunc("/v1/roles", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if deps.Catalog == nil {
			writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": deps.Catalog.Roles})
	})
}

func registerWorkspaceHandlers(mux *http.ServeMux, deps Deps) {
	mux.HandleFunc("/v1/workspace", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		_, ws, ok := requireWorkspace(w, r, deps)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, ws.State())
	})

	mux.HandleFunc("/v1/workspace/role", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		session, ws, ok := requireWorkspace(w, r, deps)
		if !ok {
			return
		}
		var req struct {
			Role catalog.RoleID `json:"role"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		changed, err := ws.SelectRole(req.Role)
		if err != nil {
			auditReq(deps.Audit, r, session.Email, "role.select", string(req.Role), "failed", session.ID, err.Error())
			if !writeDomainError(w, err) {
				writeError(w, http.StatusInternalServerError, "select role failed")
			}
			return
		}
		if changed {
			auditReq(deps.Audit, r, session.Email, "role.select", string(req.Role), "success", session.ID, "")
		}
		writeJSON(w, http.StatusOK, map[string]any{"changed": changed, "workspace": ws.State()})
	})

	mux.HandleFunc("/v1/workspace/active-project", func(w http.ResponseWriter, r *http.Request) {
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
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := ws.SetActiveProject(strings.TrimSpace(req.ProjectID)); err != nil {
			if !writeDomainError(w, err) {
				writeError(w, http.StatusInternalServerError, "set active project failed")
			}
			return
		}
		auditReq(deps.Audit, r, session.Email, "project.activate", req.ProjectID, "success", session.ID, "")
		writeJSON(w, http.StatusOK, ws.State())
	})

	mux.HandleFunc("/v1/workspace/health-mode", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		session, ws, ok := requireWorkspace(w, r, deps)
		if !ok {
			return
		}
		var req struct {
			Enabled bool `json:"enabled"`
			Rating  *int `json:"rating"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		rating := ws.State().Health.Rating
		if req.Rating != nil {
			rating = *req.Rating
		}
		mode, err := ws.SetHealthMode(req.Enabled, rating)
		if err != nil {
			if !writeDomainError(w, err) {
				writeError(w, http.StatusInternalServerError, "set health mode failed")
			}
			return
		}
		auditReq(deps.Audit, r, session.Email, "health.update", strconv.Itoa(mode.Rating), "success", session.ID, "")
		writeJSON(w, http.StatusOK, mode)
	})

	mux.HandleFunc("/v1/tasks/pending", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		_, ws, ok := requireWorkspace(w, r, deps)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": ws.PendingTasks()})
	})

	mux.HandleFunc("/v1/time-ledger", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		_, ws, ok := requireWorkspace(w, r, deps)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ledger": ws.TimeLedger()})
	})
}

func registerProjectHandlers(mux *http.ServeMux, deps Deps) {
	mux.HandleFunc("/v1/projects", func(w http.ResponseWriter, r *http.Request) {
		session, ws, ok := requireWorkspace(w, r, deps)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{
				"items":             ws.Projects(),
				"active_project_id": ws.ActiveProjectID(),
			})
		case http.MethodPost:
			var req struct {
				Title string `json:"title"`
			}
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			title := strings.TrimSpace(req.Title)
			if title == "" {
				writeError(w, http.StatusBadRequest, "title is required")
				return
			}
			p := ws.AddProject(title)
			auditReq(deps.Audit, r, session.Email, "project.create", p.ID, "success", session.ID, "")
			writeJSON(w, http.StatusCreated, p)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	mux.HandleFunc("/v1/projects/", func(w http.ResponseWriter, r *http.Request) {
		session, ws, ok := requireWorkspace(w, r, deps)
		if !ok {
			return
		}

		parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/projects/"), "/"), "/")
		projectID := parts[0]
		if projectID == "" {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}

		switch {
		case len(parts) == 1:
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			p, err := ws.Project(projectID)
			if err != nil {
				if !writeDomainError(w, err) {
					writeError(w, http.StatusInternalServerError, "get project failed")
				}
				return
			}
			writeJSON(w, http.StatusOK, p)

		case len(parts) == 2 && parts[1] == "dashboard":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			d, err := ws.Dashboard(projectID)
			if err != nil {
				if !writeDomainError(w, err) {
					writeError(w, http.StatusInternalServerError, "dashboard failed")
				}
				return
			}
			writeJSON(w, http.StatusOK, d)

		case len(parts) == 4 && parts[1] == "tasks" && parts[3] == "status":
			if r.Method != http.MethodPut {
				writeError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			taskID := parts[2]
			var req struct {
				Status tasks.Status `json:"status"`
			}
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if err := ws.UpdateTaskStatus(projectID, taskID, req.Status); err != nil {
				auditReq(deps.Audit, r, session.Email, "task.status", projectID+"/"+taskID, "failed", session.ID, err.Error())
				if !writeDomainError(w, err) {
					writeError(w, http.StatusInternalServerError, "update task status failed")
				}
				return
			}
			task, err := ws.Task(projectID, taskID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "update task status failed")
				return
			}
			auditReq(deps.Audit, r, session.Email, "task.status", projectID+"/"+taskID, "success", session.ID, string(req.Status))
			writeJSON(w, http.StatusOK, task)

		default:
			writeError(w, http.StatusNotFound, "project route not found")
		}
	})
}
