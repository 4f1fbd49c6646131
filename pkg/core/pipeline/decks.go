package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"investor_intel/pkg/core/currency"
	"investor_intel/pkg/core/llm"
	"investor_intel/pkg/core/logging"
	"investor_intel/pkg/core/objectstore"
	"investor_intel/pkg/core/store"
	"investor_intel/pkg/core/vector"
)

// ErrStartupExists is returned when a deck is submitted for a startup that
// is already on file.
var ErrStartupExists = errors.New("pipeline: startup already exists")

// DeckStore persists decks. store.DeckRepo implements it.
type DeckStore interface {
	StartupExists(ctx context.Context, name string) (bool, error)
	Save(ctx context.Context, d *store.Deck) error
	Delete(ctx context.Context, id string) error
}

var _ DeckStore = (*store.DeckRepo)(nil)

// Summarizer turns a deck PDF into text. llm.DeckSummarizer implements it.
type Summarizer interface {
	Summarize(ctx context.Context, path string) (string, error)
}

var _ Summarizer = (*llm.DeckSummarizer)(nil)

// DeckInput is one pitch-deck submission. Empty or "Unknown" fields are
// filled from the generated profile where possible.
type DeckInput struct {
	StartupName      string
	Industry         string
	Website          string
	FundingAsk       string
	PDFPath          string
	OriginalFilename string
}

// DeckResult is the outcome of DeckPipeline.Run.
type DeckResult struct {
	Deck   *store.Deck `json:"deck"`
	Chunks int         `json:"chunks"`
}

// DeckPipeline stores, summarizes and indexes pitch decks.
type DeckPipeline struct {
	decks      DeckStore
	objects    objectstore.Store
	summarizer Summarizer
	provider   llm.Provider
	indexer    DocumentIndexer
	logger     *zap.Logger
	now        func() time.Time
}

func NewDeckPipeline(decks DeckStore, objects objectstore.Store, summarizer Summarizer, provider llm.Provider, indexer DocumentIndexer, logger *zap.Logger) *DeckPipeline {
	return &DeckPipeline{
		decks:      decks,
		objects:    objects,
		summarizer: summarizer,
		provider:   provider,
		indexer:    indexer,
		logger:     logging.OrNop(logger),
		now:        time.Now,
	}
}

// Run processes one deck end to end.
func (p *DeckPipeline) Run(ctx context.Context, in DeckInput) (*DeckResult, error) {
	if err := p.checkDuplicate(ctx, in.StartupName); err != nil {
		return nil, err
	}

	pdf, err := os.ReadFile(in.PDFPath)
	if err != nil {
		return nil, fmt.Errorf("read pitch deck: %w", err)
	}

	summary, err := p.summarizer.Summarize(ctx, in.PDFPath)
	if err != nil {
		return nil, fmt.Errorf("summarize pitch deck: %w", err)
	}

	profile, err := llm.ExtractProfile(ctx, p.provider, summary)
	if err != nil {
		p.logger.Warn("profile extraction failed, using submitted fields", zap.Error(err))
		profile = &llm.Profile{}
	}

	deck := &store.Deck{
		ID:          uuid.NewString(),
		StartupName: firstKnown(in.StartupName, profile.StartupName),
		Industry:    firstKnown(in.Industry, profile.Industry),
		Website:     firstKnown(in.Website, profile.Website),
		FundingAsk:  firstKnown(in.FundingAsk, profile.FundingAsk),
		Summary:     summary,
		Filename:    in.OriginalFilename,
	}
	deck.FundingAskUSD = currency.NormalizeAmount(deck.FundingAsk)

	if !isKnown(in.StartupName) && isKnown(deck.StartupName) {
		if err := p.checkDuplicate(ctx, deck.StartupName); err != nil {
			return nil, err
		}
	}

	deck.ObjectKey = objectstore.PitchDeckKey(deck.StartupName, deck.Industry, in.OriginalFilename, p.now())

	// The insert claims the name; later failures undo everything written so far.
	if err := p.decks.Save(ctx, deck); err != nil {
		if errors.Is(err, store.ErrDuplicateStartup) {
			return nil, fmt.Errorf("%w: %s", ErrStartupExists, deck.StartupName)
		}
		return nil, err
	}

	if err := p.objects.Put(ctx, deck.ObjectKey, bytes.NewReader(pdf), "application/pdf"); err != nil {
		p.rollback(ctx, deck, false)
		return nil, fmt.Errorf("store pitch deck: %w", err)
	}

	chunks, err := p.indexer.IndexDocument(ctx, deckDocumentID(deck), summary, map[string]string{
		"source":       vector.SourceStartup,
		"startup_name": deck.StartupName,
		"industry":     deck.Industry,
		"website":      deck.Website,
	})
	if err != nil {
		p.rollback(ctx, deck, true)
		return nil, fmt.Errorf("index deck summary: %w", err)
	}

	p.logger.Info("processed pitch deck",
		zap.String("startup", deck.StartupName),
		zap.String("industry", deck.Industry),
		zap.String("key", deck.ObjectKey),
		zap.Int("chunks", chunks))
	return &DeckResult{Deck: deck, Chunks: chunks}, nil
}

func deckDocumentID(d *store.Deck) string {
	return "startup_" + d.ID
}

// rollback removes what Run wrote for deck. Failures are logged only.
func (p *DeckPipeline) rollback(ctx context.Context, deck *store.Deck, stored bool) {
	ctx = context.WithoutCancel(ctx)
	log := p.logger.With(zap.String("startup", deck.StartupName), zap.String("id", deck.ID))
	if stored {
		if err := p.indexer.RemoveDocument(ctx, deckDocumentID(deck)); err != nil {
			log.Warn("rollback: remove vectors failed", zap.Error(err))
		}
		if err := p.objects.Delete(ctx, deck.ObjectKey); err != nil {
			log.Warn("rollback: delete pitch deck failed", zap.String("key", deck.ObjectKey), zap.Error(err))
		}
	}
	if err := p.decks.Delete(ctx, deck.ID); err != nil {
		log.Warn("rollback: delete startup failed", zap.Error(err))
	}
}

func (p *DeckPipeline) checkDuplicate(ctx context.Context, name string) error {
	if !isKnown(name) {
		return nil
	}
	exists, err := p.decks.StartupExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check existing startup: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrStartupExists, name)
	}
	return nil
}

func isKnown(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !strings.EqualFold(s, "unknown")
}

func firstKnown(values ...string) string {
	for _, v := range values {
		if isKnown(v) {
			return strings.TrimSpace(v)
		}
	}
	return "Unknown"
}
