package refine

import (
	"context"
	"math"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"investor_intel/pkg/core/currency"
)

// RefineRecord converts a single raw row. It never fails: unparseable
// columns become nil.
func RefineRecord(raw RawRecord) RefinedRecord {
	return RefinedRecord{
		Rank:             ParseRank(raw.Rank),
		Company:          raw.Company,
		City:             raw.City,
		Country:          raw.Country,
		FundingUSD:       currency.NormalizeAmount(raw.Funding),
		Industry:         raw.Industry,
		Employees:        ParseEmployees(raw.Employees),
		RevenueUSD:       currency.NormalizeAmount(raw.Revenue),
		EmpGrowthPercent: ParseGrowthPercent(raw.EmpGrowthPercent),
	}
}

// Refine converts rows in order.
func Refine(rows []RawRecord) []RefinedRecord {
	out := make([]RefinedRecord, len(rows))
	for i, r := range rows {
		out[i] = RefineRecord(r)
	}
	return out
}

// RefineParallel is Refine fanned out over at most workers goroutines.
// Output order matches input order.
func RefineParallel(ctx context.Context, rows []RawRecord, workers int) ([]RefinedRecord, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([]RefinedRecord, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = RefineRecord(rows[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseRank parses the rank column. "N/A" and empty values are absent.
func ParseRank(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return nil
	}
	return parseInt(s)
}

// ParseEmployees parses the employee count; thousands separators are allowed.
func ParseEmployees(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return parseInt(strings.ReplaceAll(s, ",", ""))
}

// ParseGrowthPercent parses values like "12.5%" into 12.5.
func ParseGrowthPercent(s string) *float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

func parseInt(s string) *int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// FromColumns builds a RawRecord from a column map. Column names are matched
// case-insensitively; unknown columns are ignored.
func FromColumns(cols map[string]string) RawRecord {
	var r RawRecord
	for k, v := range cols {
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "rank":
			r.Rank = v
		case "company":
			r.Company = v
		case "city":
			r.City = v
		case "country":
			r.Country = v
		case "funding":
			r.Funding = v
		case "industry":
			r.Industry = v
		case "employees":
			r.Employees = v
		case "revenue":
			r.Revenue = v
		case "emp_growth_percent":
			r.EmpGrowthPercent = v
		}
	}
	return r
}
