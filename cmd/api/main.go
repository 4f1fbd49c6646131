package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"investor_intel/pkg/api/chunk"
	"investor_intel/pkg/api/companies"
	"investor_intel/pkg/api/competitors"
	"investor_intel/pkg/api/health"
	"investor_intel/pkg/api/normalize"
	"investor_intel/pkg/api/refinement"
	"investor_intel/pkg/api/search"
	"investor_intel/pkg/api/startups"
	"investor_intel/pkg/core/app"
	"investor_intel/pkg/core/config"
	"investor_intel/pkg/core/logging"
)

func main() {
	configPath := flag.String("config", "config/investorintel.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("wire components", zap.Error(err))
	}
	defer a.Close()

	mux := http.NewServeMux()
	register(mux, a)

	srv := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", zap.String("addr", cfg.API.Addr), zap.Strings("missing_env", cfg.MissingSecrets()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func register(mux *http.ServeMux, a *app.App) {
	checks := map[string]health.Check{
		"database":     nil,
		"vector_store": nil,
	}
	if a.Pool != nil {
		checks["database"] = a.Pool.Ping
		checks["vector_store"] = a.Pool.Ping
	}
	healthHandler := health.NewHandler(a.Config, checks)
	mux.HandleFunc("/health", healthHandler.HandleHealth)

	// Stateless utilities
	mux.HandleFunc("/api/normalize", normalize.HandleNormalize)
	mux.HandleFunc("/api/rates", normalize.HandleRates)
	mux.HandleFunc("/api/chunk", chunk.HandleChunk)
	refineHandler := refinement.NewHandler(a.Config.Refine.Workers, a.Logger.Named("refine"))
	mux.HandleFunc("/api/refine", refineHandler.HandleRefine)

	// Retrieval and chat
	searchHandler := search.NewHandler(a.Searcher, a.Assistant, a.Logger.Named("search"))
	mux.HandleFunc("/api/search", searchHandler.HandleSearch)
	mux.HandleFunc("/api/chat", searchHandler.HandleChat)

	// Warehouse
	var (
		companySearcher companies.CompanySearcher
		startupChecker  companies.StartupChecker
	)
	if a.Pool != nil {
		companySearcher = a.Companies
		startupChecker = a.Decks
	}
	companyHandler := companies.NewHandler(companySearcher, startupChecker, a.Logger.Named("companies"))
	mux.HandleFunc("/api/companies", companyHandler.HandleList)
	mux.HandleFunc("/api/check-startup-exists", companyHandler.HandleCheckStartupExists)

	var (
		competitorSource competitors.CompetitorSource
		reportLister     competitors.ReportLister
	)
	if a.Pool != nil {
		competitorSource = a.Companies
		reportLister = a.Reports
	}
	competitorHandler := competitors.NewHandler(competitorSource, reportLister, a.Logger.Named("competitors"))
	mux.HandleFunc("/api/get-industry-competitors", competitorHandler.HandleCompetitors)

	// Pitch decks and the investor board
	var (
		deckRunner   startups.DeckRunner
		startupStore startups.StartupStore
	)
	if decks, err := a.DeckPipeline(); err == nil {
		deckRunner = decks
		startupStore = a.Decks
	}
	startupHandler := startups.NewHandler(deckRunner, startupStore, a.Objects, a.Config.Storage.PresignExpiry, a.Logger.Named("startups"))
	mux.HandleFunc("/api/process-pitch-deck", startupHandler.HandleProcessPitchDeck)
	mux.HandleFunc("/api/fetch-startup-info", startupHandler.HandleStartupInfo)
	mux.HandleFunc("/api/update-startup-status", startupHandler.HandleUpdateStatus)
	mux.HandleFunc("/api/fetch-startups-by-status", startupHandler.HandleListByStatus)
}
