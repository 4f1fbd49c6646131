// Package currency converts free-form funding/revenue strings such as
// "$12.5M", "€300K" or "CA$1.2B" into canonical USD amounts.
package currency

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Prefix is a currency marker together with its static USD conversion rate.
type Prefix struct {
	Symbol string
	Code   string
	Rate   decimal.Decimal
}

// Suffix is a magnitude marker (K/M/B).
type Suffix struct {
	Symbol     string
	Multiplier decimal.Decimal
}

// Point-in-time FX snapshot. These are not live rates.
var prefixes = []Prefix{
	{Symbol: "CA$", Code: "CAD", Rate: decimal.RequireFromString("0.73")},
	{Symbol: "CN¥", Code: "CNY", Rate: decimal.RequireFromString("0.14")},
	{Symbol: "€", Code: "EUR", Rate: decimal.RequireFromString("1.10")},
	{Symbol: "$", Code: "USD", Rate: decimal.NewFromInt(1)},
}

// Checked in this order for every prefix, then the bare prefix.
var suffixes = []Suffix{
	{Symbol: "M", Multiplier: decimal.New(1, 6)},
	{Symbol: "K", Multiplier: decimal.New(1, 3)},
	{Symbol: "B", Multiplier: decimal.New(1, 9)},
}

// NormalizeAmount parses raw into a USD amount. It returns nil when no
// currency/magnitude branch yields a parseable number; it never panics and
// never reports garbage as zero.
func NormalizeAmount(raw string) *float64 {
	d, ok := NormalizeDecimal(raw)
	if !ok {
		return nil
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

// NormalizeDecimal is NormalizeAmount without the float conversion.
func NormalizeDecimal(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}

	for _, p := range prefixes {
		if !hasPrefixFold(s, p.Symbol) {
			continue
		}
		for _, sfx := range suffixes {
			if !hasSuffixFold(s, sfx.Symbol) || len(s) < len(p.Symbol)+len(sfx.Symbol) {
				continue
			}
			body := s[len(p.Symbol) : len(s)-len(sfx.Symbol)]
			if v, ok := parseBody(body); ok {
				return v.Mul(sfx.Multiplier).Mul(p.Rate), true
			}
		}
		if v, ok := parseBody(s[len(p.Symbol):]); ok {
			return v.Mul(p.Rate), true
		}
	}

	// No recognised currency marker: plain numeric strings.
	return parseBody(s)
}

// Rates returns a copy of the static FX table keyed by currency symbol.
func Rates() map[string]float64 {
	out := make(map[string]float64, len(prefixes))
	for _, p := range prefixes {
		out[p.Symbol] = p.Rate.InexactFloat64()
	}
	return out
}

// Prefixes returns the prefix table in match order.
func Prefixes() []Prefix {
	out := make([]Prefix, len(prefixes))
	copy(out, prefixes)
	return out
}

// Plain decimal notation only. Exponents and grouping are rejected.
var bodyPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// maxBodyLen keeps float conversion well inside float64 range.
const maxBodyLen = 64

func parseBody(body string) (decimal.Decimal, bool) {
	body = strings.TrimSpace(body)
	if len(body) > maxBodyLen || !bodyPattern.MatchString(body) {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(body)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
