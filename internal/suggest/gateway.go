package suggest

import (
	"context"
	"errors"
	"strings"
	"time"

	"ninerolesapp/nine-roles/internal/catalog"
	"ninerolesapp/nine-roles/internal/tasks"
)

const (
	DisabledSuggestionMessage = "Smart suggestion feature is disabled. Please set up your Gemini API key."
	DisabledResearchMessage   = "Smart research feature is disabled. Please set up your Gemini API key."

	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 30 * time.Second
)

var (
	ErrSuggestionFailed = errors.New("failed to fetch suggestion")
	ErrResearchFailed   = errors.New("failed to fetch research")
)

// Gateway is the generative-text collaborator used by role views. Calls are
// safe to repeat; nothing is cached or deduplicated.
type Gateway interface {
	SmartSuggestion(ctx context.Context, role catalog.Role, task tasks.Task) (string, error)
	Research(ctx context.Context, topic string) (string, error)
	Enabled() bool
}

type Config struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

// New returns a Gemini-backed gateway, or a disabled one when no API key is
// configured. The decision is made once, here.
func New(ctx context.Context, cfg Config) (Gateway, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Disabled{}, nil
	}
	return NewGemini(ctx, cfg)
}

// Disabled answers every call with a fixed message instead of failing.
type Disabled struct{}

func (Disabled) SmartSuggestion(context.Context, catalog.Role, tasks.Task) (string, error) {
	return DisabledSuggestionMessage, nil
}

func (Disabled) Research(context.Context, string) (string, error) {
	return DisabledResearchMessage, nil
}

func (Disabled) Enabled() bool { return false }
