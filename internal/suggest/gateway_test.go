package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ninerolesapp/nine-roles/internal/catalog"
	"ninerolesapp/nine-roles/internal/tasks"
)

var (
	testRole = catalog.Role{ID: catalog.Writer, Name: "The Writer", Description: "Transforming the idea into a production-ready script."}
	testTask = tasks.Task{ID: "p1t2", ProjectID: "proj1", RoleID: catalog.Writer, Title: "Write a script", Status: tasks.StatusPending}
)

func TestNewWithoutKeyIsDisabled(t *testing.T) {
	gw, err := New(context.Background(), Config{APIKey: "  "})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if gw.Enabled() {
		t.Fatalf("expected disabled gateway")
	}

	got, err := gw.SmartSuggestion(context.Background(), testRole, testTask)
	if err != nil {
		t.Fatalf("SmartSuggestion() error: %v", err)
	}
	if got != DisabledSuggestionMessage {
		t.Fatalf("unexpected suggestion %q", got)
	}
	got, err = gw.Research(context.Background(), "drones")
	if err != nil {
		t.Fatalf("Research() error: %v", err)
	}
	if got != DisabledResearchMessage {
		t.Fatalf("unexpected research %q", got)
	}
}

type capturedRequest struct {
	path   string
	key    string
	prompt string
}

func newGeminiServer(t *testing.T, status int, reply string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		_ = json.Unmarshal(body, &req)
		if captured != nil {
			captured.path = r.URL.Path
			captured.key = r.URL.Query().Get("key")
			if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
				captured.prompt = req.Contents[0].Parts[0].Text
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = io.WriteString(w, `{"error":{"code":400,"message":"bad request","status":"INVALID_ARGUMENT"}}`)
			return
		}
		resp := map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": reply}}}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiSmartSuggestion(t *testing.T) {
	var captured capturedRequest
	srv := newGeminiServer(t, http.StatusOK, "  **Suggested Sub-Task:** Draft the hook.\n", &captured)

	gw, err := New(context.Background(), Config{APIKey: "test-key", Endpoint: srv.URL + "/", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if !gw.Enabled() {
		t.Fatalf("expected enabled gateway")
	}

	got, err := gw.SmartSuggestion(context.Background(), testRole, testTask)
	if err != nil {
		t.Fatalf("SmartSuggestion() error: %v", err)
	}
	if got != "**Suggested Sub-Task:** Draft the hook." {
		t.Fatalf("expected trimmed suggestion, got %q", got)
	}
	if !strings.HasSuffix(captured.path, "models/gemini-2.5-flash:generateContent") {
		t.Fatalf("unexpected request path %q", captured.path)
	}
	if captured.key != "test-key" {
		t.Fatalf("expected api key in request, got %q", captured.key)
	}
	if !strings.Contains(captured.prompt, "The Writer") || !strings.Contains(captured.prompt, `"Write a script"`) {
		t.Fatalf("prompt missing role or task context: %q", captured.prompt)
	}
}

func TestGeminiResearchUsesConfiguredModel(t *testing.T) {
	var captured capturedRequest
	srv := newGeminiServer(t, http.StatusOK, "**Key Summary:** ...", &captured)

	gw, err := NewGemini(context.Background(), Config{APIKey: "k", Endpoint: srv.URL + "/", Model: "models/custom-model"})
	if err != nil {
		t.Fatalf("NewGemini() error: %v", err)
	}
	got, err := gw.Research(context.Background(), "budget travel in NYC")
	if err != nil {
		t.Fatalf("Research() error: %v", err)
	}
	if got != "**Key Summary:** ..." {
		t.Fatalf("unexpected research %q", got)
	}
	if !strings.HasSuffix(captured.path, "models/custom-model:generateContent") {
		t.Fatalf("unexpected request path %q", captured.path)
	}
	if !strings.Contains(captured.prompt, `"budget travel in NYC"`) {
		t.Fatalf("prompt missing topic: %q", captured.prompt)
	}
}

func TestGeminiFailuresAreWrapped(t *testing.T) {
	srv := newGeminiServer(t, http.StatusBadRequest, "", nil)
	gw, err := NewGemini(context.Background(), Config{APIKey: "k", Endpoint: srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewGemini() error: %v", err)
	}

	if _, err := gw.SmartSuggestion(context.Background(), testRole, testTask); !errors.Is(err, ErrSuggestionFailed) {
		t.Fatalf("expected ErrSuggestionFailed, got %v", err)
	}
	if _, err := gw.Research(context.Background(), "x"); !errors.Is(err, ErrResearchFailed) {
		t.Fatalf("expected ErrResearchFailed, got %v", err)
	}
}

func TestGeminiEmptyCandidateFails(t *testing.T) {
	srv := newGeminiServer(t, http.StatusOK, "   ", nil)
	gw, err := NewGemini(context.Background(), Config{APIKey: "k", Endpoint: srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewGemini() error: %v", err)
	}
	if _, err := gw.Research(context.Background(), "x"); !errors.Is(err, ErrResearchFailed) {
		t.Fatalf("expected ErrResearchFailed for blank reply, got %v", err)
	}
}
