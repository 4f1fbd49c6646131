package llm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	filesapi "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiFiles is a FileService backed by the Gemini Files API.
type GeminiFiles struct {
	apiKey string
	model  string

	once    sync.Once
	client  *filesapi.Client
	initErr error
}

var _ FileService = (*GeminiFiles)(nil)

// NewGeminiFiles configures the Files API client for model.
func NewGeminiFiles(apiKey, model string) *GeminiFiles {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiFiles{apiKey: apiKey, model: model}
}

func (g *GeminiFiles) init(ctx context.Context) error {
	g.once.Do(func() {
		if g.apiKey == "" {
			g.initErr = ErrMissingAPIKey
			return
		}
		g.client, g.initErr = filesapi.NewClient(ctx, option.WithAPIKey(g.apiKey))
		if g.initErr != nil {
			g.initErr = fmt.Errorf("create files client: %w", g.initErr)
		}
	})
	return g.initErr
}

// Close releases the underlying client.
func (g *GeminiFiles) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *GeminiFiles) Upload(ctx context.Context, path string) (*RemoteFile, error) {
	if err := g.init(ctx); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	uploaded, err := g.client.UploadFile(ctx, "", f, &filesapi.UploadFileOptions{
		DisplayName: filepath.Base(path),
		MIMEType:    "application/pdf",
	})
	if err != nil {
		return nil, err
	}
	return toRemoteFile(uploaded), nil
}

func (g *GeminiFiles) Get(ctx context.Context, name string) (*RemoteFile, error) {
	if err := g.init(ctx); err != nil {
		return nil, err
	}
	f, err := g.client.GetFile(ctx, name)
	if err != nil {
		return nil, err
	}
	return toRemoteFile(f), nil
}

func (g *GeminiFiles) Delete(ctx context.Context, name string) error {
	if err := g.init(ctx); err != nil {
		return err
	}
	return g.client.DeleteFile(ctx, name)
}

func (g *GeminiFiles) Generate(ctx context.Context, file *RemoteFile, prompt string) (string, error) {
	if err := g.init(ctx); err != nil {
		return "", err
	}
	model := g.client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx,
		filesapi.Text(prompt),
		filesapi.FileData{URI: file.URI, MIMEType: file.MIMEType},
	)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(filesapi.Text); ok {
				sb.WriteString(string(text))
			}
		}
		break
	}
	return sb.String(), nil
}

func toRemoteFile(f *filesapi.File) *RemoteFile {
	state := FileFailed
	switch f.State {
	case filesapi.FileStateProcessing:
		state = FileProcessing
	case filesapi.FileStateActive:
		state = FileActive
	}
	return &RemoteFile{Name: f.Name, URI: f.URI, MIMEType: f.MIMEType, State: state}
}
