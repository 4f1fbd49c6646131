// Package assistant answers investor questions from vector search results.
package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"investor_intel/pkg/core/llm"
	"investor_intel/pkg/core/logging"
	"investor_intel/pkg/core/vector"
)

const (
	// EmptyQueryReply is returned for blank questions.
	EmptyQueryReply = "Please enter a question about startups in our database."
	// NoResultsReply is returned when search finds nothing relevant.
	NoResultsReply = "I don't have any information about that in my database. Please try asking about a different startup or topic."
)

const systemPrompt = `You are an AI assistant for venture capitalists and investors.
When answering questions, use the provided search results to inform your responses.
Provide factual, accurate information based directly on the search results.
If the information comes from multiple sources, synthesize it coherently.

Guidelines:
- Cite specific sources when providing information (e.g., "According to Result #3...")
- If a question can't be answered with the provided results, say so clearly
- Be concise and focus on investment-relevant points
- For startups, highlight business model, market potential, and competitive advantages
- For industry reports, focus on market trends, growth forecasts, and key insights`

// Searcher is the retrieval half of the assistant.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, filter vector.Filter) ([]vector.Match, error)
}

// Reply is the assistant's answer to one question.
type Reply struct {
	Response     string         `json:"response"`
	Query        string         `json:"query"`
	ResultsCount int            `json:"results_count"`
	Sources      []vector.Match `json:"sources,omitempty"`
}

// Assistant combines retrieval with an LLM.
type Assistant struct {
	searcher Searcher
	provider llm.Provider
	topK     int
	logger   *zap.Logger
}

func New(searcher Searcher, provider llm.Provider, topK int, logger *zap.Logger) *Assistant {
	if topK <= 0 {
		topK = 5
	}
	return &Assistant{searcher: searcher, provider: provider, topK: topK, logger: logging.OrNop(logger)}
}

// Answer searches for context relevant to query and asks the model to answer
// from it. An industry filter is applied when non-empty.
func (a *Assistant) Answer(ctx context.Context, query, industry string) (*Reply, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &Reply{Response: EmptyQueryReply, Query: query}, nil
	}

	var filter vector.Filter
	if industry != "" {
		filter = vector.Filter{"industry": industry}
	}
	matches, err := a.searcher.Search(ctx, query, a.topK, filter)
	if err != nil {
		return nil, fmt.Errorf("search context: %w", err)
	}
	if len(matches) == 0 {
		a.logger.Info("no results for query", zap.String("query", query))
		return &Reply{Response: NoResultsReply, Query: query}, nil
	}

	prompt := fmt.Sprintf("Based on the following search results, please answer this question: %s\n\n%s",
		query, BuildContext(matches))
	raw, err := a.provider.GenerateResponse(ctx, prompt, systemPrompt, llm.Options{})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	a.logger.Info("answered query", zap.String("query", query), zap.Int("results", len(matches)))
	return &Reply{
		Response:     CleanResponse(raw),
		Query:        query,
		ResultsCount: len(matches),
		Sources:      matches,
	}, nil
}

// BuildContext renders matches as numbered results under a header that
// counts startup and report hits.
func BuildContext(matches []vector.Match) string {
	var startups, reports int
	for _, m := range matches {
		switch m.Metadata["source"] {
		case vector.SourceStartup:
			startups++
		case vector.SourceReport:
			reports++
		}
	}

	var parts []string
	switch {
	case startups > 0 && reports > 0:
		parts = append(parts, fmt.Sprintf(
			"The following information comes from both startup data (%d results) and industry reports (%d results):",
			startups, reports))
	case startups > 0:
		parts = append(parts, fmt.Sprintf("The following information comes from startup data (%d results):", startups))
	case reports > 0:
		parts = append(parts, fmt.Sprintf("The following information comes from industry reports (%d results):", reports))
	}

	for i, m := range matches {
		md := m.Metadata
		switch md["source"] {
		case vector.SourceStartup:
			parts = append(parts, fmt.Sprintf("Result #%d (Startup): %s\nIndustry: %s\nContent: %s\n",
				i+1, orDefault(md["startup_name"], "Unnamed Startup"),
				orDefault(md["industry"], "Unknown"), orDefault(m.Content, "No information available")))
		case vector.SourceReport:
			parts = append(parts, fmt.Sprintf("Result #%d (Industry Report): %s\nIndustry: %s\nYear: %s\nContent: %s\n",
				i+1, orDefault(md["title"], "Untitled Report"), orDefault(md["industry"], "Unknown"),
				orDefault(md["year"], "Unknown"), orDefault(m.Content, "No information available")))
		}
	}
	return strings.Join(parts, "\n\n")
}

var (
	introPhrases = []string{
		"Based on the provided search results:",
		"Based on the search results provided:",
		"Here's the information from the search results:",
		"According to the search results:",
		"Here's what I found in the search results:",
		"From the search results:",
	}
	resultRef    = regexp.MustCompile(`\s*\((?:Result #|Source )\d+\)`)
	extraNewline = regexp.MustCompile(`\n{3,}`)
)

// CleanResponse strips boilerplate intros and inline result references from
// model output.
func CleanResponse(text string) string {
	text = strings.TrimSpace(text)
	for _, intro := range introPhrases {
		if len(text) >= len(intro) && strings.EqualFold(text[:len(intro)], intro) {
			text = strings.TrimSpace(text[len(intro):])
		}
	}
	text = resultRef.ReplaceAllString(text, "")
	text = extraNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
