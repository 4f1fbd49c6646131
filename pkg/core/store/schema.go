package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the warehouse tables. organization_summary mirrors the
// Crunchbase basic company export and is loaded out of band.
const Schema = `
CREATE TABLE IF NOT EXISTS organization_summary (
	name              TEXT NOT NULL,
	short_description TEXT,
	city              TEXT,
	country_code      TEXT,
	homepage_url      TEXT,
	linkedin_url      TEXT,
	cb_url            TEXT,
	updated_at        TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS stg_growjo_data (
	rank               TEXT,
	company            TEXT NOT NULL,
	city               TEXT,
	country            TEXT,
	funding            TEXT,
	industry           TEXT,
	employees          TEXT,
	revenue            TEXT,
	emp_growth_percent TEXT
);

CREATE TABLE IF NOT EXISTS refined_growjo_data (
	rank               BIGINT,
	company            TEXT,
	city               TEXT,
	country            TEXT,
	funding_usd        DOUBLE PRECISION,
	industry           TEXT,
	employees          BIGINT,
	revenue_usd        DOUBLE PRECISION,
	emp_growth_percent DOUBLE PRECISION,
	loaded_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
ALTER TABLE refined_growjo_data ADD COLUMN IF NOT EXISTS loaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW();

CREATE TABLE IF NOT EXISTS startups (
	id               UUID PRIMARY KEY,
	startup_name     TEXT NOT NULL,
	industry         TEXT,
	website_url      TEXT,
	funding_ask      TEXT,
	funding_ask_usd  DOUBLE PRECISION,
	summary_report   TEXT,
	pitch_deck_key   TEXT,
	pitch_deck_file  TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
DROP INDEX IF EXISTS startups_name_idx;
CREATE UNIQUE INDEX IF NOT EXISTS startups_known_name_idx ON startups (LOWER(startup_name))
	WHERE LOWER(startup_name) <> 'unknown';

CREATE TABLE IF NOT EXISTS startup_investor_map (
	investor_id BIGINT NOT NULL,
	startup_id  UUID NOT NULL REFERENCES startups (id) ON DELETE CASCADE,
	status      TEXT NOT NULL DEFAULT 'New',
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (investor_id, startup_id)
);

CREATE TABLE IF NOT EXISTS industry_reports (
	id          UUID PRIMARY KEY,
	industry    TEXT NOT NULL,
	year        INT,
	title       TEXT,
	object_key  TEXT,
	summary     TEXT,
	chunk_count INT NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// MergedViewSQL rebuilds company_merged_view, joining the latest refined
// Growjo row per company with Crunchbase organizations by lower-cased name.
const MergedViewSQL = `
CREATE OR REPLACE VIEW company_merged_view AS
SELECT
	r.company,
	o.short_description,
	r.industry,
	r.revenue_usd,
	r.employees,
	r.emp_growth_percent,
	r.city,
	r.country,
	o.homepage_url,
	o.linkedin_url,
	o.cb_url,
	o.updated_at
FROM (
	SELECT DISTINCT ON (LOWER(company)) *
	FROM refined_growjo_data
	ORDER BY LOWER(company), loaded_at DESC, funding_usd DESC NULLS LAST
) r
JOIN organization_summary o ON LOWER(r.company) = LOWER(o.name)`

// EnsureSchema applies Schema and the merged view.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return ErrPoolNotInitialized
	}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := pool.Exec(ctx, MergedViewSQL); err != nil {
		return fmt.Errorf("create merged view: %w", err)
	}
	return nil
}
