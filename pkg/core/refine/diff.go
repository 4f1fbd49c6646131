package refine

import (
	"strconv"
	"strings"
)

// Diff returns the rows of fresh that are not already in persisted, with
// duplicates inside fresh collapsed (SQL EXCEPT semantics). Rows compare on
// every column; nil only equals nil.
func Diff(fresh, persisted []RefinedRecord) []RefinedRecord {
	seen := make(map[string]struct{}, len(persisted)+len(fresh))
	for _, r := range persisted {
		seen[Key(r)] = struct{}{}
	}

	var out []RefinedRecord
	for _, r := range fresh {
		k := Key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Key is the identity of a refined row across all columns.
func Key(r RefinedRecord) string {
	parts := []string{
		intKey(r.Rank),
		r.Company,
		r.City,
		r.Country,
		floatKey(r.FundingUSD),
		r.Industry,
		intKey(r.Employees),
		floatKey(r.RevenueUSD),
		floatKey(r.EmpGrowthPercent),
	}
	for i, p := range parts {
		parts[i] = strconv.Quote(p)
	}
	return strings.Join(parts, "\x1f")
}

func intKey(v *int64) string {
	if v == nil {
		return "\x00null"
	}
	return strconv.FormatInt(*v, 10)
}

func floatKey(v *float64) string {
	if v == nil {
		return "\x00null"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
