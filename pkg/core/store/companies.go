package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"investor_intel/pkg/core/growjo"
	"investor_intel/pkg/core/refine"
)

// Match sources for FindCompany.
const (
	SourceMergedView = "merged_view"
	SourceCrunchbase = "crunchbase"
)

// CompanyMatch is a known US company that a scraped update can be attached to.
type CompanyMatch struct {
	Source    string
	Company   string
	City      string
	Country   string
	Industry  string
	Employees string
}

// CompanyFilter narrows SearchCompanies. Zero values are ignored.
type CompanyFilter struct {
	Industry   string
	Country    string
	MinFunding *float64
	Limit      int
}

const (
	defaultCompanyLimit = 50
	maxCompanyLimit     = 500
)

// CompanyRepo reads and writes the Growjo staging and refined tables.
type CompanyRepo struct {
	pool *pgxpool.Pool
}

// NewCompanyRepo creates a new company repository
func NewCompanyRepo(pool *pgxpool.Pool) *CompanyRepo {
	return &CompanyRepo{pool: pool}
}

// FindCompany looks name up in the merged view, then in the Crunchbase
// summary. Both lookups are case-insensitive and restricted to the USA.
// It returns nil when neither has the company.
func (r *CompanyRepo) FindCompany(ctx context.Context, name string) (*CompanyMatch, error) {
	if r.pool == nil {
		return nil, ErrPoolNotInitialized
	}

	m := CompanyMatch{Source: SourceMergedView}
	err := r.pool.QueryRow(ctx, `
		SELECT company, COALESCE(city, ''), COALESCE(country, ''),
		       COALESCE(industry, ''), COALESCE(employees::text, '')
		FROM company_merged_view
		WHERE LOWER(company) = LOWER($1) AND country = 'USA'
		LIMIT 1`, name).Scan(&m.Company, &m.City, &m.Country, &m.Industry, &m.Employees)
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find %q in merged view: %w", name, err)
	}

	m = CompanyMatch{Source: SourceCrunchbase}
	err = r.pool.QueryRow(ctx, `
		SELECT name, COALESCE(city, ''), COALESCE(country_code, '')
		FROM organization_summary
		WHERE LOWER(name) = LOWER($1) AND country_code = 'USA'
		LIMIT 1`, name).Scan(&m.Company, &m.City, &m.Country)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %q in crunchbase: %w", name, err)
	}
	return &m, nil
}

// StagingExists reports whether the staging table already has name.
func (r *CompanyRepo) StagingExists(ctx context.Context, name string) (bool, error) {
	if r.pool == nil {
		return false, ErrPoolNotInitialized
	}
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM stg_growjo_data WHERE LOWER(company) = LOWER($1))`,
		name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check staging for %q: %w", name, err)
	}
	return exists, nil
}

// InsertStaging adds a staging row built from a known company and a scraped
// update. Industry and employees are only known for merged-view matches.
func (r *CompanyRepo) InsertStaging(ctx context.Context, match *CompanyMatch, u growjo.Update) error {
	if r.pool == nil {
		return ErrPoolNotInitialized
	}
	row := stagingRow(match, u)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO stg_growjo_data
			(company, city, country, industry, employees, revenue, emp_growth_percent, funding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		row.Company, row.City, row.Country, nullIfEmpty(row.Industry), nullIfEmpty(row.Employees),
		row.Revenue, row.EmpGrowthPercent, row.Funding)
	if err != nil {
		return fmt.Errorf("insert staging row for %q: %w", row.Company, err)
	}
	return nil
}

// UpdateStaging overwrites funding, revenue and growth for name.
func (r *CompanyRepo) UpdateStaging(ctx context.Context, name string, u growjo.Update) error {
	if r.pool == nil {
		return ErrPoolNotInitialized
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE stg_growjo_data
		SET funding = $1, revenue = $2, emp_growth_percent = $3
		WHERE LOWER(company) = LOWER($4)`,
		u.Funding, u.Revenue, u.Growth, name)
	if err != nil {
		return fmt.Errorf("update staging row for %q: %w", name, err)
	}
	return nil
}

// LoadStaging returns every staging row as raw strings.
func (r *CompanyRepo) LoadStaging(ctx context.Context) ([]refine.RawRecord, error) {
	if r.pool == nil {
		return nil, ErrPoolNotInitialized
	}
	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(rank, ''), company, COALESCE(city, ''), COALESCE(country, ''),
		       COALESCE(funding, ''), COALESCE(industry, ''), COALESCE(employees, ''),
		       COALESCE(revenue, ''), COALESCE(emp_growth_percent, '')
		FROM stg_growjo_data`)
	if err != nil {
		return nil, fmt.Errorf("load staging: %w", err)
	}
	defer rows.Close()

	var out []refine.RawRecord
	for rows.Next() {
		var rec refine.RawRecord
		if err := rows.Scan(&rec.Rank, &rec.Company, &rec.City, &rec.Country, &rec.Funding,
			&rec.Industry, &rec.Employees, &rec.Revenue, &rec.EmpGrowthPercent); err != nil {
			return nil, fmt.Errorf("scan staging row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

const refinedColumnsSQL = `
		SELECT rank, COALESCE(company, ''), COALESCE(city, ''), COALESCE(country, ''),
		       funding_usd, COALESCE(industry, ''), employees, revenue_usd, emp_growth_percent`

const refinedSelect = refinedColumnsSQL + `
		FROM refined_growjo_data`

// latestRefined keeps one row per company: the most recently loaded one.
const latestRefined = `(
			SELECT DISTINCT ON (LOWER(company)) *
			FROM refined_growjo_data
			ORDER BY LOWER(company), loaded_at DESC, funding_usd DESC NULLS LAST
		) latest`

// LoadRefined returns every persisted refined row.
func (r *CompanyRepo) LoadRefined(ctx context.Context) ([]refine.RefinedRecord, error) {
	if r.pool == nil {
		return nil, ErrPoolNotInitialized
	}
	return r.queryRefined(ctx, refinedSelect)
}

func (r *CompanyRepo) queryRefined(ctx context.Context, query string, args ...any) ([]refine.RefinedRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query refined rows: %w", err)
	}
	defer rows.Close()

	var out []refine.RefinedRecord
	for rows.Next() {
		var rec refine.RefinedRecord
		if err := rows.Scan(&rec.Rank, &rec.Company, &rec.City, &rec.Country, &rec.FundingUSD,
			&rec.Industry, &rec.Employees, &rec.RevenueUSD, &rec.EmpGrowthPercent); err != nil {
			return nil, fmt.Errorf("scan refined row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// refinedColumns is the COPY column order for refined_growjo_data.
var refinedColumns = []string{
	"rank", "company", "city", "country", "funding_usd",
	"industry", "employees", "revenue_usd", "emp_growth_percent",
}

// InsertRefined bulk-loads rows with COPY and returns the number written.
func (r *CompanyRepo) InsertRefined(ctx context.Context, recs []refine.RefinedRecord) (int64, error) {
	if r.pool == nil {
		return 0, ErrPoolNotInitialized
	}
	if len(recs) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"refined_growjo_data"},
		refinedColumns,
		pgx.CopyFromSlice(len(recs), func(i int) ([]any, error) {
			return refinedValues(recs[i]), nil
		}),
	)
	if err != nil {
		return n, fmt.Errorf("copy refined rows: %w", err)
	}
	return n, nil
}

// RefreshMergedView recreates company_merged_view.
func (r *CompanyRepo) RefreshMergedView(ctx context.Context) error {
	if r.pool == nil {
		return ErrPoolNotInitialized
	}
	if _, err := r.pool.Exec(ctx, MergedViewSQL); err != nil {
		return fmt.Errorf("refresh merged view: %w", err)
	}
	return nil
}

// SearchCompanies lists refined rows matching f, largest funding first.
// Each company appears once, using its latest refined row.
func (r *CompanyRepo) SearchCompanies(ctx context.Context, f CompanyFilter) ([]refine.RefinedRecord, error) {
	if r.pool == nil {
		return nil, ErrPoolNotInitialized
	}
	query, args := companyQuery(f)
	return r.queryRefined(ctx, query, args...)
}

func companyQuery(f CompanyFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Industry != "" {
		add("industry ILIKE '%%' || $%d || '%%'", f.Industry)
	}
	if f.Country != "" {
		add("LOWER(country) = LOWER($%d)", f.Country)
	}
	if f.MinFunding != nil {
		add("funding_usd >= $%d", *f.MinFunding)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultCompanyLimit
	}
	limit = min(limit, maxCompanyLimit)

	var sb strings.Builder
	sb.WriteString(refinedColumnsSQL)
	sb.WriteString("\n\t\tFROM ")
	sb.WriteString(latestRefined)
	if len(conds) > 0 {
		sb.WriteString("\n\t\tWHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	args = append(args, limit)
	fmt.Fprintf(&sb, "\n\t\tORDER BY funding_usd DESC NULLS LAST, company\n\t\tLIMIT $%d", len(args))
	return sb.String(), args
}

// Competitor is one company_merged_view row returned by TopCompetitors.
type Competitor struct {
	Company          string   `json:"company"`
	Industry         string   `json:"industry"`
	EmpGrowthPercent *float64 `json:"emp_growth_percent"`
	RevenueUSD       *float64 `json:"revenue"`
	ShortDescription string   `json:"short_description"`
	Employees        *int64   `json:"employees"`
	City             string   `json:"city"`
	Country          string   `json:"country"`
	HomepageURL      string   `json:"homepage_url"`
	LinkedInURL      string   `json:"linkedin_url"`
}

const defaultCompetitorLimit = 5

// TopCompetitors returns the companies in industry with the highest revenue,
// then employee growth. Each company appears once.
func (r *CompanyRepo) TopCompetitors(ctx context.Context, industry string, limit int) ([]Competitor, error) {
	if r.pool == nil {
		return nil, ErrPoolNotInitialized
	}
	query, args := competitorQuery(industry, limit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query competitors for %q: %w", industry, err)
	}
	defer rows.Close()

	out := []Competitor{}
	for rows.Next() {
		var c Competitor
		if err := rows.Scan(&c.Company, &c.Industry, &c.EmpGrowthPercent, &c.RevenueUSD,
			&c.ShortDescription, &c.Employees, &c.City, &c.Country, &c.HomepageURL, &c.LinkedInURL); err != nil {
			return nil, fmt.Errorf("scan competitor: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func competitorQuery(industry string, limit int) (string, []any) {
	if limit <= 0 {
		limit = defaultCompetitorLimit
	}
	limit = min(limit, maxCompanyLimit)
	return `
		WITH ranked AS (
			SELECT company, industry, emp_growth_percent, revenue_usd, short_description,
			       employees, city, country, homepage_url, linkedin_url,
			       ROW_NUMBER() OVER (
			           PARTITION BY LOWER(company)
			           ORDER BY revenue_usd DESC NULLS LAST, emp_growth_percent DESC NULLS LAST
			       ) AS rn
			FROM company_merged_view
			WHERE LOWER(industry) = LOWER($1)
		)
		SELECT COALESCE(company, ''), COALESCE(industry, ''), emp_growth_percent, revenue_usd,
		       COALESCE(short_description, ''), employees, COALESCE(city, ''), COALESCE(country, ''),
		       COALESCE(homepage_url, ''), COALESCE(linkedin_url, '')
		FROM ranked
		WHERE rn = 1
		ORDER BY revenue_usd DESC NULLS LAST, emp_growth_percent DESC NULLS LAST
		LIMIT $2`, []any{industry, limit}
}

// CityDistribution counts competitors per non-empty city.
func CityDistribution(cs []Competitor) map[string]int {
	out := map[string]int{}
	for _, c := range cs {
		if c.City != "" {
			out[c.City]++
		}
	}
	return out
}

func stagingRow(match *CompanyMatch, u growjo.Update) refine.RawRecord {
	row := refine.RawRecord{
		Company:          match.Company,
		City:             match.City,
		Country:          match.Country,
		Funding:          u.Funding,
		Revenue:          u.Revenue,
		EmpGrowthPercent: u.Growth,
	}
	if match.Source == SourceMergedView {
		row.Industry = match.Industry
		row.Employees = match.Employees
	}
	return row
}

func refinedValues(rec refine.RefinedRecord) []any {
	return []any{
		rec.Rank, rec.Company, rec.City, rec.Country, rec.FundingUSD,
		rec.Industry, rec.Employees, rec.RevenueUSD, rec.EmpGrowthPercent,
	}
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
