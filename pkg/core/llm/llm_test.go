package llm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockFiles is a FileService whose behaviour is set per test.
type MockFiles struct {
	UploadFunc   func(ctx context.Context, path string) (*RemoteFile, error)
	GetFunc      func(ctx context.Context, name string) (*RemoteFile, error)
	DeleteFunc   func(ctx context.Context, name string) error
	GenerateFunc func(ctx context.Context, file *RemoteFile, prompt string) (string, error)
	deleted      []string
}

func (m *MockFiles) Upload(ctx context.Context, path string) (*RemoteFile, error) {
	return m.UploadFunc(ctx, path)
}

func (m *MockFiles) Get(ctx context.Context, name string) (*RemoteFile, error) {
	return m.GetFunc(ctx, name)
}

func (m *MockFiles) Delete(ctx context.Context, name string) error {
	m.deleted = append(m.deleted, name)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, name)
	}
	return nil
}

func (m *MockFiles) Generate(ctx context.Context, file *RemoteFile, prompt string) (string, error) {
	return m.GenerateFunc(ctx, file, prompt)
}

func writeDeck(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	return path
}

func TestDeckSummarizer_PollsUntilActive(t *testing.T) {
	polls := 0
	files := &MockFiles{
		UploadFunc: func(_ context.Context, _ string) (*RemoteFile, error) {
			return &RemoteFile{Name: "files/abc", State: FileProcessing}, nil
		},
		GetFunc: func(_ context.Context, name string) (*RemoteFile, error) {
			polls++
			if polls < 2 {
				return &RemoteFile{Name: name, State: FileProcessing}, nil
			}
			return &RemoteFile{Name: name, URI: "uri", MIMEType: "application/pdf", State: FileActive}, nil
		},
		GenerateFunc: func(_ context.Context, f *RemoteFile, prompt string) (string, error) {
			assert.Equal(t, "uri", f.URI)
			assert.Contains(t, prompt, "Funding Ask & Use")
			return "summary", nil
		},
	}

	s := NewDeckSummarizer(files, time.Millisecond, nil)
	got, err := s.Summarize(context.Background(), writeDeck(t))
	require.NoError(t, err)
	assert.Equal(t, "summary", got)
	assert.Equal(t, 2, polls)
	assert.Equal(t, []string{"files/abc"}, files.deleted)
}

func TestDeckSummarizer_FailedFileIsDeleted(t *testing.T) {
	files := &MockFiles{
		UploadFunc: func(_ context.Context, _ string) (*RemoteFile, error) {
			return &RemoteFile{Name: "files/bad", State: FileFailed}, nil
		},
	}

	_, err := NewDeckSummarizer(files, time.Millisecond, nil).Summarize(context.Background(), writeDeck(t))
	assert.True(t, errors.Is(err, ErrFileNotActive))
	assert.Equal(t, []string{"files/bad"}, files.deleted)
}

func TestDeckSummarizer_GenerateErrorStillDeletes(t *testing.T) {
	files := &MockFiles{
		UploadFunc: func(_ context.Context, _ string) (*RemoteFile, error) {
			return &RemoteFile{Name: "files/x", State: FileActive}, nil
		},
		GenerateFunc: func(context.Context, *RemoteFile, string) (string, error) {
			return "", errors.New("quota")
		},
	}

	_, err := NewDeckSummarizer(files, 0, nil).Summarize(context.Background(), writeDeck(t))
	assert.ErrorContains(t, err, "quota")
	assert.Equal(t, []string{"files/x"}, files.deleted)
}

func TestDeckSummarizer_MissingFile(t *testing.T) {
	files := &MockFiles{}
	_, err := NewDeckSummarizer(files, 0, nil).Summarize(context.Background(), "/nonexistent/deck.pdf")
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Empty(t, files.deleted)
}

func TestExtractProfile(t *testing.T) {
	provider := ProviderFunc(func(_ context.Context, prompt, system string, opts Options) (string, error) {
		assert.True(t, opts.JSON)
		assert.Contains(t, system, "startup_name")
		assert.Equal(t, "deck summary", prompt)
		return "```json\n{\"startup_name\": \" Acme \", \"industry\": \"Fintech\", \"website\": \"acme.io\", \"funding_ask\": \"$2.5M\",}\n```", nil
	})

	p, err := ExtractProfile(context.Background(), provider, "deck summary")
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.StartupName)
	assert.Equal(t, "Fintech", p.Industry)
	require.NotNil(t, p.FundingAskUSD)
	assert.Equal(t, 2500000.0, *p.FundingAskUSD)
}

func TestExtractProfile_UnstatedAsk(t *testing.T) {
	provider := ProviderFunc(func(context.Context, string, string, Options) (string, error) {
		return `{"startup_name":"Acme","industry":"","website":"","funding_ask":""}`, nil
	})

	p, err := ExtractProfile(context.Background(), provider, "summary")
	require.NoError(t, err)
	assert.Nil(t, p.FundingAskUSD)
}

func TestExtractProfile_MissingName(t *testing.T) {
	provider := ProviderFunc(func(context.Context, string, string, Options) (string, error) {
		return `{"startup_name":"  ","industry":"Fintech"}`, nil
	})

	_, err := ExtractProfile(context.Background(), provider, "summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "StartupName")
}

func TestExtractProfile_EmptySummary(t *testing.T) {
	_, err := ExtractProfile(context.Background(), ProviderFunc(nil), "  ")
	assert.Error(t, err)
}

func TestGeminiProvider_MissingKey(t *testing.T) {
	p := NewGeminiProvider("", "")
	_, err := p.GenerateResponse(context.Background(), "hi", "", Options{})
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestGeminiFiles_MissingKey(t *testing.T) {
	g := NewGeminiFiles("", "")
	_, err := g.Upload(context.Background(), "deck.pdf")
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
	assert.NoError(t, g.Close())
}
