// Package refine turns raw Growjo staging rows into typed rows with
// USD-normalized funding and revenue.
package refine

// RawRecord is a staging row exactly as scraped: every column is a string.
type RawRecord struct {
	Rank             string `json:"rank"`
	Company          string `json:"company"`
	City             string `json:"city"`
	Country          string `json:"country"`
	Funding          string `json:"funding"`
	Industry         string `json:"industry"`
	Employees        string `json:"employees"`
	Revenue          string `json:"revenue"`
	EmpGrowthPercent string `json:"emp_growth_percent"`
}

// RefinedRecord is the typed form of RawRecord. Nil pointers mean the source
// column could not be parsed.
type RefinedRecord struct {
	Rank             *int64   `json:"rank"`
	Company          string   `json:"company"`
	City             string   `json:"city"`
	Country          string   `json:"country"`
	FundingUSD       *float64 `json:"funding"`
	Industry         string   `json:"industry"`
	Employees        *int64   `json:"employees"`
	RevenueUSD       *float64 `json:"revenue"`
	EmpGrowthPercent *float64 `json:"emp_growth_percent"`
}

// Columns lists the column names shared by raw and refined rows, in table order.
var Columns = []string{
	"rank", "company", "city", "country", "funding",
	"industry", "employees", "revenue", "emp_growth_percent",
}
