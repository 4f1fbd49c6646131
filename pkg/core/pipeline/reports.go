package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"investor_intel/pkg/core/logging"
	"investor_intel/pkg/core/objectstore"
	"investor_intel/pkg/core/store"
	"investor_intel/pkg/core/utils"
	"investor_intel/pkg/core/vector"
)

// DocumentIndexer chunks and embeds a document. vector.Indexer implements it.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, documentID, markdown string, metadata map[string]string) (int, error)
	RemoveDocument(ctx context.Context, documentID string) error
}

var _ DocumentIndexer = (*vector.Indexer)(nil)

// ReportStore persists report metadata. store.ReportRepo implements it.
type ReportStore interface {
	Save(ctx context.Context, rep *store.Report) error
}

// ReportInput is one industry report converted to markdown.
type ReportInput struct {
	Title    string
	Industry string
	Year     int
	Filename string
	Markdown string
	// PDF is the optional source document, stored next to the markdown.
	PDF []byte
}

// ErrEmptyReport is returned for reports with no content after cleaning.
var ErrEmptyReport = errors.New("pipeline: report has no content")

const summaryLimit = 500

// ReportIndexer stores industry reports and indexes them for search.
type ReportIndexer struct {
	objects objectstore.Store
	reports ReportStore
	indexer DocumentIndexer
	logger  *zap.Logger
}

func NewReportIndexer(objects objectstore.Store, reports ReportStore, indexer DocumentIndexer, logger *zap.Logger) *ReportIndexer {
	return &ReportIndexer{objects: objects, reports: reports, indexer: indexer, logger: logging.OrNop(logger)}
}

// Run cleans, stores, indexes and records one report.
func (r *ReportIndexer) Run(ctx context.Context, in ReportInput) (*store.Report, error) {
	markdown := utils.CleanMarkdown(in.Markdown)
	if markdown == "" {
		return nil, ErrEmptyReport
	}

	id := uuid.NewString()
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = utils.Title(markdown)
	}
	filename := in.Filename
	if filename == "" {
		filename = id + ".md"
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	key := objectstore.MarkdownKey(in.Industry, filename)
	if err := r.objects.Put(ctx, key, strings.NewReader(markdown), "text/markdown"); err != nil {
		return nil, fmt.Errorf("store report markdown: %w", err)
	}
	if len(in.PDF) > 0 {
		pdfName := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)) + ".pdf"
		if err := r.objects.Put(ctx, objectstore.PDFKey(in.Industry, pdfName), bytes.NewReader(in.PDF), "application/pdf"); err != nil {
			return nil, fmt.Errorf("store report pdf: %w", err)
		}
	}

	meta := map[string]string{
		"source":   vector.SourceReport,
		"industry": in.Industry,
		"title":    title,
	}
	if in.Year > 0 {
		meta["year"] = strconv.Itoa(in.Year)
	}
	chunks, err := r.indexer.IndexDocument(ctx, "report_"+id, markdown, meta)
	if err != nil {
		return nil, fmt.Errorf("index report: %w", err)
	}

	rep := &store.Report{
		ID:         id,
		Industry:   in.Industry,
		Year:       in.Year,
		Title:      title,
		ObjectKey:  key,
		Summary:    summarize(markdown),
		ChunkCount: chunks,
	}
	if err := r.reports.Save(ctx, rep); err != nil {
		if rmErr := r.indexer.RemoveDocument(context.WithoutCancel(ctx), "report_"+id); rmErr != nil {
			r.logger.Warn("rollback: remove report vectors failed", zap.String("id", id), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("save report: %w", err)
	}

	r.logger.Info("indexed report",
		zap.String("id", id),
		zap.String("title", title),
		zap.String("industry", in.Industry),
		zap.Int("chunks", chunks))
	return rep, nil
}

// summarize lists the report's section headings, or falls back to the
// leading text, capped at summaryLimit runes.
func summarize(markdown string) string {
	var s string
	if headings := utils.Outline(markdown); len(headings) > 0 {
		names := make([]string, len(headings))
		for i, h := range headings {
			names[i] = h.Text
		}
		s = strings.Join(names, "; ")
	} else {
		s = strings.Join(strings.Fields(markdown), " ")
	}
	if runes := []rune(s); len(runes) > summaryLimit {
		s = string(runes[:summaryLimit])
	}
	return s
}
