// Package growjo scrapes company funding updates and company tables from
// growjo.com.
package growjo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"investor_intel/pkg/core/refine"
)

// CardSelector matches one "recent update" card on the Growjo home page.
const CardSelector = "div.recent-card-maping"

// TableSelector matches the company search results table.
const TableSelector = "table.cstm-table"

// ErrNoCards is returned when a page contains no parseable update cards.
var ErrNoCards = errors.New("growjo: no update cards found")

// Update is one recent funding/revenue update for a company.
type Update struct {
	Company   string `json:"company"`
	Funding   string `json:"funding"`
	Valuation string `json:"valuation"`
	Revenue   string `json:"revenue"`
	Growth    string `json:"growth"`
}

// ParseCards extracts the recent-update cards from page HTML. Cards without
// a company link or with fewer than four value spans are skipped.
func ParseCards(html string) ([]Update, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse growjo html: %w", err)
	}

	var updates []Update
	doc.Find(CardSelector).Each(func(i int, card *goquery.Selection) {
		company := strings.TrimSpace(card.Find("h4 a").First().Text())
		spans := card.Find("span")
		if company == "" || spans.Length() < 4 {
			return
		}
		span := func(idx int, label string) string {
			text := strings.TrimSpace(spans.Eq(idx).Text())
			return strings.TrimSpace(strings.Replace(text, label, "", 1))
		}
		updates = append(updates, Update{
			Company:   company,
			Funding:   span(0, "Funding "),
			Valuation: span(1, "Valuation: "),
			Revenue:   span(2, "Revenue "),
			Growth:    span(3, "Growth "),
		})
	})

	if len(updates) == 0 {
		return nil, ErrNoCards
	}
	return updates, nil
}

// ParseCompanyTable reads the company results table into raw staging rows.
// Header cells are mapped onto staging columns by name.
func ParseCompanyTable(html string) ([]refine.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse growjo html: %w", err)
	}

	table := doc.Find(TableSelector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("growjo: table %q not found", TableSelector)
	}

	var headers []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, columnName(th.Text()))
	})

	var rows []refine.RawRecord
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cols := make(map[string]string, len(headers))
		tr.Find("td").Each(func(j int, td *goquery.Selection) {
			if j < len(headers) {
				cols[headers[j]] = strings.TrimSpace(td.Text())
			}
		})
		row := refine.FromColumns(cols)
		if row.Company != "" {
			rows = append(rows, row)
		}
	})
	return rows, nil
}

// columnName maps a table header such as "Emp Growth %" onto a staging
// column name.
func columnName(header string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(header)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	name := strings.Trim(b.String(), "_")

	switch name {
	case "emp_growth", "employee_growth", "emp_growth_percentage":
		return "emp_growth_percent"
	case "company_name", "name":
		return "company"
	case "total_funding":
		return "funding"
	case "estimated_revenue", "est_revenue":
		return "revenue"
	}
	return name
}
