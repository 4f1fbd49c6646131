package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"investor_intel/pkg/core/logging"
)

// DeckPrompt asks for an investor-oriented summary of an uploaded pitch deck.
const DeckPrompt = `Analyze the provided startup pitch deck PDF from the perspective of a venture capital investor.
Generate a concise summary covering the key aspects an investor needs to evaluate the opportunity.
Structure the summary clearly, addressing the following points based *only* on the document's content:

1.  **Problem:** Clearly state the core problem the startup addresses.
2.  **Solution:** Describe the startup's proposed solution.
3.  **Product/Service:** Briefly detail the offering.
4.  **Business Model:** Explain how the company intends to generate revenue.
5.  **Target Market & Opportunity:** Identify the customer segment and the market's size/potential.
6.  **Team:** Summarize key team members and their relevant background (if mentioned).
7.  **Traction/Milestones:** Highlight any achievements like user growth, revenue, partnerships, or completed milestones.
8.  **Competition:** List key competitors and the startup's differentiation (if provided).
9.  **Financials:** Summarize key financial data or projections presented.
10. **Funding Ask & Use:** State the amount of funding sought and its intended use.
11. **Investor Synopsis:** Conclude with a brief assessment of potential strengths, weaknesses, and overall investment appeal based *strictly* on the deck's content.

Be objective and extract information accurately. If information for a section is not present in the PDF, state that clearly (e.g., "Financial projections were not provided.").`

// FileState is the processing state of an uploaded file.
type FileState string

const (
	FileProcessing FileState = "PROCESSING"
	FileActive     FileState = "ACTIVE"
	FileFailed     FileState = "FAILED"
)

// RemoteFile is a document held by the model service.
type RemoteFile struct {
	Name     string
	URI      string
	MIMEType string
	State    FileState
}

// FileService uploads documents to the model service and prompts over them.
type FileService interface {
	Upload(ctx context.Context, path string) (*RemoteFile, error)
	Get(ctx context.Context, name string) (*RemoteFile, error)
	Delete(ctx context.Context, name string) error
	Generate(ctx context.Context, file *RemoteFile, prompt string) (string, error)
}

// ErrFileNotActive is returned when an upload never becomes usable.
var ErrFileNotActive = errors.New("llm: uploaded file is not active")

// DeckSummarizer produces investor summaries of pitch-deck PDFs.
type DeckSummarizer struct {
	files        FileService
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewDeckSummarizer wires a summarizer. pollInterval <= 0 polls every 5s.
func NewDeckSummarizer(files FileService, pollInterval time.Duration, logger *zap.Logger) *DeckSummarizer {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &DeckSummarizer{files: files, pollInterval: pollInterval, logger: logging.OrNop(logger)}
}

// Summarize uploads the PDF at path, waits for it to be processed and returns
// the generated summary. The uploaded file is always deleted.
func (s *DeckSummarizer) Summarize(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("pitch deck %s: %w", path, err)
	}

	file, err := s.files.Upload(ctx, path)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}
	name := file.Name
	log := s.logger.With(zap.String("file", name))
	log.Info("uploaded pitch deck", zap.String("uri", file.URI))

	defer func() {
		// Cleanup runs even when ctx is already cancelled.
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := s.files.Delete(cleanupCtx, name); err != nil {
			log.Warn("could not delete uploaded file", zap.Error(err))
		}
	}()

	for file.State == FileProcessing {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.pollInterval):
		}
		if file, err = s.files.Get(ctx, name); err != nil {
			return "", fmt.Errorf("poll file state: %w", err)
		}
	}
	if file.State != FileActive {
		return "", fmt.Errorf("%w: state %s", ErrFileNotActive, file.State)
	}

	summary, err := s.files.Generate(ctx, file, DeckPrompt)
	if err != nil {
		return "", fmt.Errorf("generate deck summary: %w", err)
	}
	log.Info("generated deck summary", zap.Int("chars", len(summary)))
	return summary, nil
}
