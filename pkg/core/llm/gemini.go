package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// DefaultModel is used when neither the provider nor the call names a model.
const DefaultModel = "gemini-2.0-flash"

// GeminiProvider implements the Provider interface for Google's Gemini models.
// The client is created on first use and shared across goroutines.
type GeminiProvider struct {
	apiKey string
	model  string

	once    sync.Once
	client  *genai.Client
	initErr error
}

// Ensure interface compliance
var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider configures a provider. No network call is made until the
// first request.
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiProvider{apiKey: apiKey, model: model}
}

func (p *GeminiProvider) init(ctx context.Context) error {
	p.once.Do(func() {
		if p.apiKey == "" {
			p.initErr = ErrMissingAPIKey
			return
		}
		p.client, p.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if p.initErr != nil {
			p.initErr = fmt.Errorf("failed to create GenAI client: %w", p.initErr)
		}
	})
	return p.initErr
}

// GenerateResponse sends a generateContent request to the Gemini API.
func (p *GeminiProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, opts Options) (string, error) {
	if err := p.init(ctx); err != nil {
		return "", err
	}

	model := p.model
	if opts.Model != "" {
		model = opts.Model
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.1)),
	}
	if opts.Temperature != nil {
		config.Temperature = opts.Temperature
	}
	if opts.JSON || wantsJSON(systemPrompt) {
		config.ResponseMIMEType = "application/json"
	}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	result, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	return result.Text(), nil
}

func wantsJSON(systemPrompt string) bool {
	return strings.Contains(strings.ToLower(systemPrompt), "respond only with json")
}
