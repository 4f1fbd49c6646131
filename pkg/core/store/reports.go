package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Report is an indexed industry report.
type Report struct {
	ID         string    `json:"id"`
	Industry   string    `json:"industry"`
	Year       int       `json:"year"`
	Title      string    `json:"title"`
	ObjectKey  string    `json:"object_key"`
	Summary    string    `json:"summary"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReportRepo stores industry report metadata.
type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// Save upserts rep by id.
func (r *ReportRepo) Save(ctx context.Context, rep *Report) error {
	if r.pool == nil {
		return ErrPoolNotInitialized
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO industry_reports (id, industry, year, title, object_key, summary, chunk_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			industry    = EXCLUDED.industry,
			year        = EXCLUDED.year,
			title       = EXCLUDED.title,
			object_key  = EXCLUDED.object_key,
			summary     = EXCLUDED.summary,
			chunk_count = EXCLUDED.chunk_count
		RETURNING created_at`,
		rep.ID, rep.Industry, rep.Year, rep.Title, rep.ObjectKey, rep.Summary, rep.ChunkCount,
	).Scan(&rep.CreatedAt)
	if err != nil {
		return fmt.Errorf("save report %s: %w", rep.ID, err)
	}
	return nil
}

// ListByIndustry returns reports for industry (any case), newest year first.
func (r *ReportRepo) ListByIndustry(ctx context.Context, industry string) ([]Report, error) {
	if r.pool == nil {
		return nil, ErrPoolNotInitialized
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, industry, COALESCE(year, 0), COALESCE(title, ''),
		       COALESCE(object_key, ''), COALESCE(summary, ''), chunk_count, created_at
		FROM industry_reports
		WHERE LOWER(industry) = LOWER($1)
		ORDER BY year DESC NULLS LAST, created_at DESC`, industry)
	if err != nil {
		return nil, fmt.Errorf("list reports for %q: %w", industry, err)
	}
	defer rows.Close()

	out := []Report{}
	for rows.Next() {
		var rep Report
		if err := rows.Scan(&rep.ID, &rep.Industry, &rep.Year, &rep.Title, &rep.ObjectKey,
			&rep.Summary, &rep.ChunkCount, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}
