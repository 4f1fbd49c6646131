// Package app wires configuration into the components shared by the API
// server and the pipeline CLI. Missing credentials degrade a component to
// its in-process fallback instead of failing startup.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"investor_intel/pkg/core/assistant"
	"investor_intel/pkg/core/config"
	"investor_intel/pkg/core/embedding"
	"investor_intel/pkg/core/growjo"
	"investor_intel/pkg/core/llm"
	"investor_intel/pkg/core/logging"
	"investor_intel/pkg/core/objectstore"
	"investor_intel/pkg/core/pipeline"
	"investor_intel/pkg/core/store"
	"investor_intel/pkg/core/vector"
)

// App holds the wired components. Pool and the repositories are nil when no
// database is configured.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Pool      *pgxpool.Pool
	Companies *store.CompanyRepo
	Decks     *store.DeckRepo
	Reports   *store.ReportRepo

	Vectors   vector.Store
	Embedder  embedding.Embedder
	Indexer   *vector.Indexer
	Searcher  *vector.Searcher
	Objects   objectstore.Store
	Provider  llm.Provider
	Files     *llm.GeminiFiles
	Assistant *assistant.Assistant
}

// New builds an App from cfg.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	logger = logging.OrNop(logger)
	a := &App{Config: cfg, Logger: logger}

	if cfg.Database.URL != "" {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.Pool = pool
		pg := vector.NewPGStore(pool, cfg.Vector.Table, cfg.Vector.Dimensions)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		a.Vectors = pg
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory vector store and no warehouse")
		a.Vectors = vector.NewMemoryStore(cfg.Vector.Dimensions)
	}
	a.Companies = store.NewCompanyRepo(a.Pool)
	a.Decks = store.NewDeckRepo(a.Pool)
	a.Reports = store.NewReportRepo(a.Pool)

	if cfg.Gemini.APIKey != "" {
		a.Embedder = embedding.NewGenAIEmbedder(cfg.Gemini.APIKey, cfg.Gemini.EmbeddingModel, cfg.Vector.Dimensions)
	} else {
		logger.Warn("GEMINI_API_KEY not set; using hash embeddings")
		a.Embedder = embedding.NewHashEmbedder(cfg.Vector.Dimensions)
	}
	a.Provider = llm.NewGeminiProvider(cfg.Gemini.APIKey, cfg.Gemini.Model)
	a.Files = llm.NewGeminiFiles(cfg.Gemini.APIKey, cfg.Gemini.Model)

	a.Indexer = vector.NewIndexer(a.Vectors, a.Embedder, cfg.Vector.BatchSize, logger.Named("indexer"))
	a.Searcher = vector.NewSearcher(a.Vectors, a.Embedder, cfg.Assistant.MinScore)
	a.Assistant = assistant.New(a.Searcher, a.Provider, cfg.Assistant.TopK, logger.Named("assistant"))

	if cfg.Storage.Bucket != "" {
		s3, err := objectstore.NewS3Store(ctx, cfg.Storage.Region, cfg.Storage.Bucket)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Objects = s3
	} else {
		logger.Warn("AWS_S3_BUCKET_NAME not set; objects are kept in memory")
		a.Objects = objectstore.NewMemoryStore()
	}

	return a, nil
}

// GrowjoUpdater returns the Growjo job, or an error without a database.
func (a *App) GrowjoUpdater() (*pipeline.GrowjoUpdater, error) {
	if a.Pool == nil {
		return nil, store.ErrPoolNotInitialized
	}
	return pipeline.NewGrowjoUpdater(a.GrowjoScraper(), a.Companies, a.Config.Refine.Workers, a.Logger.Named("growjo")), nil
}

// GrowjoScraper returns a browser scraper configured for Growjo.
func (a *App) GrowjoScraper() *growjo.Scraper {
	g := a.Config.Growjo
	return growjo.NewScraper(g.URL, g.WaitTimeout, g.ControlURL, a.Logger.Named("growjo"))
}

// ReportIndexer returns the report job, or an error without a database.
func (a *App) ReportIndexer() (*pipeline.ReportIndexer, error) {
	if a.Pool == nil {
		return nil, store.ErrPoolNotInitialized
	}
	return pipeline.NewReportIndexer(a.Objects, a.Reports, a.Indexer, a.Logger.Named("reports")), nil
}

// DeckPipeline returns the pitch-deck job, or an error without a database.
func (a *App) DeckPipeline() (*pipeline.DeckPipeline, error) {
	if a.Pool == nil {
		return nil, store.ErrPoolNotInitialized
	}
	summarizer := llm.NewDeckSummarizer(a.Files, 0, a.Logger.Named("deck"))
	return pipeline.NewDeckPipeline(a.Decks, a.Objects, summarizer, a.Provider, a.Indexer, a.Logger.Named("deck")), nil
}

// Close releases the database pool and the Files client.
func (a *App) Close() {
	if a.Files != nil {
		_ = a.Files.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
