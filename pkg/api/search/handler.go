package search

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"investor_intel/pkg/api"
	"investor_intel/pkg/core/assistant"
	"investor_intel/pkg/core/logging"
	"investor_intel/pkg/core/vector"
)

const maxTopK = 50

// Searcher runs similarity search. vector.Searcher implements it.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, filter vector.Filter) ([]vector.Match, error)
}

// Answerer answers questions. assistant.Assistant implements it.
type Answerer interface {
	Answer(ctx context.Context, query, industry string) (*assistant.Reply, error)
}

type SearchRequest struct {
	Query    string `json:"query"`
	TopK     int    `json:"top_k"`
	Industry string `json:"industry,omitempty"`
	Source   string `json:"source,omitempty"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Results []vector.Match `json:"results"`
	Count   int            `json:"count"`
}

type ChatRequest struct {
	Query    string `json:"query"`
	Industry string `json:"industry,omitempty"`
}

// Handler serves search and chat. Either dependency may be nil when its
// backing service is not configured; the endpoint then answers 503.
type Handler struct {
	searcher Searcher
	answerer Answerer
	logger   *zap.Logger
}

func NewHandler(searcher Searcher, answerer Answerer, logger *zap.Logger) *Handler {
	return &Handler{searcher: searcher, answerer: answerer, logger: logging.OrNop(logger)}
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if api.Preflight(w, r, "POST") || !api.AllowMethod(w, r, http.MethodPost) {
		return
	}
	if h.searcher == nil {
		api.WriteError(w, http.StatusServiceUnavailable, "vector search is not configured")
		return
	}

	var req SearchRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		api.WriteError(w, http.StatusBadRequest, "query is required")
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 5
	}
	topK = min(topK, maxTopK)

	filter := vector.Filter{}
	if req.Industry != "" {
		filter["industry"] = req.Industry
	}
	if req.Source != "" {
		filter["source"] = req.Source
	}

	matches, err := h.searcher.Search(r.Context(), req.Query, topK, filter)
	if err != nil {
		h.logger.Error("search failed", zap.String("query", req.Query), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if matches == nil {
		matches = []vector.Match{}
	}
	api.WriteJSON(w, http.StatusOK, SearchResponse{Query: req.Query, Results: matches, Count: len(matches)})
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if api.Preflight(w, r, "POST") || !api.AllowMethod(w, r, http.MethodPost) {
		return
	}
	if h.answerer == nil {
		api.WriteError(w, http.StatusServiceUnavailable, "assistant is not configured")
		return
	}

	var req ChatRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}

	reply, err := h.answerer.Answer(r.Context(), req.Query, req.Industry)
	if err != nil {
		h.logger.Error("chat failed", zap.String("query", req.Query), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "I'm unable to process this request at the moment. Please try again with a different question.")
		return
	}
	api.WriteJSON(w, http.StatusOK, reply)
}
