package llm

import (
	"context"
	"fmt"
	"strings"

	"investor_intel/pkg/core/currency"
	"investor_intel/pkg/core/utils"
)

const profileSystemPrompt = `You extract structured facts from startup pitch-deck summaries.
Respond only with JSON using exactly these keys:
{"startup_name": string, "industry": string, "website": string, "funding_ask": string}
Use an empty string when a value is not stated. Keep funding_ask as written, e.g. "$2.5M".`

// Profile is the structured view of a pitch deck.
type Profile struct {
	StartupName   string   `json:"startup_name"`
	Industry      string   `json:"industry"`
	Website       string   `json:"website"`
	FundingAsk    string   `json:"funding_ask"`
	FundingAskUSD *float64 `json:"funding_ask_usd,omitempty"`
}

// ExtractProfile asks provider for a JSON profile of summary. Malformed model
// output is repaired where possible.
func ExtractProfile(ctx context.Context, provider Provider, summary string) (*Profile, error) {
	if strings.TrimSpace(summary) == "" {
		return nil, fmt.Errorf("extract profile: empty summary")
	}

	raw, err := provider.GenerateResponse(ctx, summary, profileSystemPrompt, Options{JSON: true})
	if err != nil {
		return nil, fmt.Errorf("extract profile: %w", err)
	}

	var p Profile
	if _, err := utils.SmartParse(raw, &p); err != nil {
		return nil, fmt.Errorf("extract profile: %w", err)
	}
	p.StartupName = strings.TrimSpace(p.StartupName)
	p.Industry = strings.TrimSpace(p.Industry)
	p.Website = strings.TrimSpace(p.Website)
	if err := utils.RequireFields(&p, "StartupName"); err != nil {
		return nil, fmt.Errorf("extract profile: %w", err)
	}
	p.FundingAskUSD = currency.NormalizeAmount(p.FundingAsk)
	return &p, nil
}
