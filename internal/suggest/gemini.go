package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/option"

	"ninerolesapp/nine-roles/internal/catalog"
	"ninerolesapp/nine-roles/internal/tasks"
)

var errEmptyResponse = errors.New("empty response")

// Gemini calls the Generative Language API. Each call is a single request
// bounded by the configured timeout; there is no retry.
type Gemini struct {
	svc     *generativelanguage.Service
	model   string
	timeout time.Duration
}

func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := generativelanguage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create generative language client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Gemini{svc: svc, model: model, timeout: timeout}, nil
}

func (g *Gemini) SmartSuggestion(ctx context.Context, role catalog.Role, task tasks.Task) (string, error) {
	text, err := g.generate(ctx, suggestionPrompt(role, task))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSuggestionFailed, err)
	}
	return text, nil
}

func (g *Gemini) Research(ctx context.Context, topic string) (string, error) {
	text, err := g.generate(ctx, researchPrompt(topic))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrResearchFailed, err)
	}
	return text, nil
}

func (g *Gemini) Enabled() bool { return true }

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{{
			Role:  "user",
			Parts: []*generativelanguage.Part{{Text: prompt}},
		}},
	}
	resp, err := g.svc.Models.GenerateContent(g.model, req).Context(ctx).Do()
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return "", errEmptyResponse
	}
	return text, nil
}

func responseText(resp *generativelanguage.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
