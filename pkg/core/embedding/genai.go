package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

// ErrMissingAPIKey is returned when the Gemini embedder has no key.
var ErrMissingAPIKey = errors.New("embedding: GEMINI_API_KEY not set")

// Gemini task types for asymmetric retrieval.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

type embedContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)

// GenAIEmbedder generates embeddings with Gemini. The client is created on
// first use and shared by all callers.
type GenAIEmbedder struct {
	apiKey string
	model  string
	dims   int

	once         sync.Once
	client       *genai.Client
	embedContent embedContentFunc
	initErr      error
}

var _ Embedder = (*GenAIEmbedder)(nil)

// NewGenAIEmbedder configures a Gemini embedder. No network call is made
// until the first Embed.
func NewGenAIEmbedder(apiKey, model string, dims int) *GenAIEmbedder {
	if model == "" {
		model = "gemini-embedding-001"
	}
	if dims <= 0 {
		dims = 768
	}
	return &GenAIEmbedder{apiKey: apiKey, model: model, dims: dims}
}

func (e *GenAIEmbedder) init(ctx context.Context) error {
	e.once.Do(func() {
		if e.apiKey == "" {
			e.initErr = ErrMissingAPIKey
			return
		}
		if e.embedContent != nil {
			return
		}
		e.client, e.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  e.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if e.initErr != nil {
			e.initErr = fmt.Errorf("create genai client: %w", e.initErr)
			return
		}
		e.embedContent = e.client.Models.EmbedContent
	})
	return e.initErr
}

// Embed embeds a search query.
func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.embed(ctx, []string{text}, TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds documents in a single request.
func (e *GenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embed(ctx, texts, TaskRetrievalDocument)
}

func (e *GenAIEmbedder) embed(ctx context.Context, texts []string, task string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := e.init(ctx); err != nil {
		return nil, err
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	dims := int32(e.dims)
	result, err := e.embedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType:             task,
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, fmt.Errorf("genai embed failed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("genai returned %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}

	out := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}

func (e *GenAIEmbedder) Dimensions() int { return e.dims }

func (e *GenAIEmbedder) Name() string { return "genai:" + e.model }
