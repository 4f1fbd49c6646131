// Package pipeline runs the batch jobs that feed the warehouse and the
// vector index.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"investor_intel/pkg/core/growjo"
	"investor_intel/pkg/core/logging"
	"investor_intel/pkg/core/refine"
	"investor_intel/pkg/core/store"
)

// UpdateSource yields the latest scraped Growjo updates.
type UpdateSource interface {
	RecentUpdates(ctx context.Context) ([]growjo.Update, error)
}

// CompanyStore is the warehouse surface the Growjo job needs.
// store.CompanyRepo implements it.
type CompanyStore interface {
	FindCompany(ctx context.Context, name string) (*store.CompanyMatch, error)
	StagingExists(ctx context.Context, name string) (bool, error)
	InsertStaging(ctx context.Context, match *store.CompanyMatch, u growjo.Update) error
	UpdateStaging(ctx context.Context, name string, u growjo.Update) error
	LoadStaging(ctx context.Context) ([]refine.RawRecord, error)
	LoadRefined(ctx context.Context) ([]refine.RefinedRecord, error)
	InsertRefined(ctx context.Context, recs []refine.RefinedRecord) (int64, error)
	RefreshMergedView(ctx context.Context) error
}

var _ CompanyStore = (*store.CompanyRepo)(nil)

// GrowjoReport summarizes one GrowjoUpdater run.
type GrowjoReport struct {
	Scraped  int           `json:"scraped"`
	Inserted int           `json:"inserted"`
	Updated  int           `json:"updated"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Staged   int           `json:"staged"`
	NewRows  int64         `json:"new_rows"`
	Duration time.Duration `json:"duration"`
}

// GrowjoUpdater merges scraped updates into staging, refines staging and
// appends rows not yet in the refined table.
type GrowjoUpdater struct {
	source  UpdateSource
	repo    CompanyStore
	workers int
	logger  *zap.Logger
}

func NewGrowjoUpdater(source UpdateSource, repo CompanyStore, workers int, logger *zap.Logger) *GrowjoUpdater {
	return &GrowjoUpdater{source: source, repo: repo, workers: workers, logger: logging.OrNop(logger)}
}

// Run executes one update. Per-company failures are logged and counted; a
// failing scrape or refinement stage aborts the run.
func (g *GrowjoUpdater) Run(ctx context.Context) (*GrowjoReport, error) {
	start := time.Now()
	report := &GrowjoReport{}

	updates, err := g.source.RecentUpdates(ctx)
	if err != nil {
		return nil, fmt.Errorf("scrape recent updates: %w", err)
	}
	report.Scraped = len(updates)
	g.logger.Info("scraped growjo updates", zap.Int("count", len(updates)))

	for _, u := range updates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		g.stage(ctx, u, report)
	}

	if err := g.refine(ctx, report); err != nil {
		return report, err
	}

	report.Duration = time.Since(start)
	g.logger.Info("growjo update finished",
		zap.Int("inserted", report.Inserted),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int64("new_rows", report.NewRows),
		zap.Duration("duration", report.Duration))
	return report, nil
}

func (g *GrowjoUpdater) stage(ctx context.Context, u growjo.Update, report *GrowjoReport) {
	log := g.logger.With(zap.String("company", u.Company))

	match, err := g.repo.FindCompany(ctx, u.Company)
	if err != nil {
		report.Failed++
		log.Warn("company lookup failed", zap.Error(err))
		return
	}
	if match == nil {
		report.Skipped++
		log.Debug("skipped: not in merged view or not USA")
		return
	}

	exists, err := g.repo.StagingExists(ctx, u.Company)
	if err != nil {
		report.Failed++
		log.Warn("staging lookup failed", zap.Error(err))
		return
	}

	if exists {
		err = g.repo.UpdateStaging(ctx, u.Company, u)
	} else {
		err = g.repo.InsertStaging(ctx, match, u)
	}
	switch {
	case err != nil:
		report.Failed++
		log.Warn("staging write failed", zap.Error(err))
	case exists:
		report.Updated++
		log.Debug("updated staging row")
	default:
		report.Inserted++
		log.Debug("inserted staging row", zap.String("source", match.Source))
	}
}

// Import refines rows parsed from a Growjo company table and appends the
// ones not yet in the refined table. Staging is left untouched.
func (g *GrowjoUpdater) Import(ctx context.Context, rows []refine.RawRecord) (*GrowjoReport, error) {
	start := time.Now()
	report := &GrowjoReport{Scraped: len(rows), Staged: len(rows)}
	if err := g.merge(ctx, rows, report); err != nil {
		return report, err
	}
	report.Duration = time.Since(start)
	g.logger.Info("growjo import finished",
		zap.Int("rows", len(rows)),
		zap.Int64("new_rows", report.NewRows),
		zap.Duration("duration", report.Duration))
	return report, nil
}

func (g *GrowjoUpdater) refine(ctx context.Context, report *GrowjoReport) error {
	raw, err := g.repo.LoadStaging(ctx)
	if err != nil {
		return fmt.Errorf("load staging: %w", err)
	}
	report.Staged = len(raw)
	return g.merge(ctx, raw, report)
}

// merge refines raw, appends unseen rows and refreshes the merged view.
func (g *GrowjoUpdater) merge(ctx context.Context, raw []refine.RawRecord, report *GrowjoReport) error {
	fresh, err := refine.RefineParallel(ctx, raw, g.workers)
	if err != nil {
		return fmt.Errorf("refine rows: %w", err)
	}
	persisted, err := g.repo.LoadRefined(ctx)
	if err != nil {
		return fmt.Errorf("load refined: %w", err)
	}

	if diff := refine.Diff(fresh, persisted); len(diff) > 0 {
		n, err := g.repo.InsertRefined(ctx, diff)
		if err != nil {
			return fmt.Errorf("insert refined: %w", err)
		}
		report.NewRows = n
	}

	if err := g.repo.RefreshMergedView(ctx); err != nil {
		return fmt.Errorf("refresh merged view: %w", err)
	}
	return nil
}
