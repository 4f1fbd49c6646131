package llm

import (
	"context"
	"errors"
)

// ErrMissingAPIKey is returned when a provider is used without credentials.
var ErrMissingAPIKey = errors.New("llm: GEMINI_API_KEY not set")

// Options tunes a single generation call. The zero value uses provider
// defaults.
type Options struct {
	Model       string
	Temperature *float32
	// JSON asks the model for an application/json response.
	JSON bool
}

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, opts Options) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, prompt, systemPrompt string, opts Options) (string, error)

func (f ProviderFunc) GenerateResponse(ctx context.Context, prompt, systemPrompt string, opts Options) (string, error) {
	return f(ctx, prompt, systemPrompt, opts)
}
