package companies

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"investor_intel/pkg/api"
	"investor_intel/pkg/core/currency"
	"investor_intel/pkg/core/logging"
	"investor_intel/pkg/core/refine"
	"investor_intel/pkg/core/store"
)

// CompanySearcher lists refined companies. store.CompanyRepo implements it.
type CompanySearcher interface {
	SearchCompanies(ctx context.Context, f store.CompanyFilter) ([]refine.RefinedRecord, error)
}

// StartupChecker reports known startups. store.DeckRepo implements it.
type StartupChecker interface {
	StartupExists(ctx context.Context, name string) (bool, error)
}

type ListResponse struct {
	Companies []refine.RefinedRecord `json:"companies"`
	Count     int                    `json:"count"`
}

type ExistsRequest struct {
	StartupName string `json:"startup_name"`
}

type ExistsResponse struct {
	Exists  bool   `json:"exists"`
	Message string `json:"message"`
}

// Handler serves warehouse lookups.
type Handler struct {
	companies CompanySearcher
	startups  StartupChecker
	logger    *zap.Logger
}

func NewHandler(companies CompanySearcher, startups StartupChecker, logger *zap.Logger) *Handler {
	return &Handler{companies: companies, startups: startups, logger: logging.OrNop(logger)}
}

// HandleList serves GET /api/companies?industry=&country=&min_funding=&limit=.
// min_funding accepts any amount NormalizeAmount understands, e.g. "$5M".
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	if api.Preflight(w, r, "GET") || !api.AllowMethod(w, r, http.MethodGet) {
		return
	}
	if h.companies == nil {
		api.WriteError(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}

	f, err := parseFilter(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.companies.SearchCompanies(r.Context(), f)
	if err != nil {
		h.logger.Error("company search failed", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "company search failed")
		return
	}
	if rows == nil {
		rows = []refine.RefinedRecord{}
	}
	api.WriteJSON(w, http.StatusOK, ListResponse{Companies: rows, Count: len(rows)})
}

func parseFilter(r *http.Request) (store.CompanyFilter, error) {
	q := r.URL.Query()
	f := store.CompanyFilter{
		Industry: strings.TrimSpace(q.Get("industry")),
		Country:  strings.TrimSpace(q.Get("country")),
	}
	if v := strings.TrimSpace(q.Get("min_funding")); v != "" {
		usd := currency.NormalizeAmount(v)
		if usd == nil {
			return f, fmt.Errorf("invalid min_funding %q", v)
		}
		f.MinFunding = usd
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid limit %q", v)
		}
		f.Limit = n
	}
	return f, nil
}

// HandleCheckStartupExists serves POST /api/check-startup-exists.
func (h *Handler) HandleCheckStartupExists(w http.ResponseWriter, r *http.Request) {
	if api.Preflight(w, r, "POST") || !api.AllowMethod(w, r, http.MethodPost) {
		return
	}

	var req ExistsRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.StartupName)
	if name == "" || strings.EqualFold(name, "unknown") {
		api.WriteJSON(w, http.StatusOK, ExistsResponse{Message: "Valid startup name not provided"})
		return
	}
	if h.startups == nil {
		api.WriteError(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}

	exists, err := h.startups.StartupExists(r.Context(), name)
	if err != nil {
		h.logger.Error("startup lookup failed", zap.String("startup", name), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "startup lookup failed")
		return
	}
	resp := ExistsResponse{Exists: exists, Message: fmt.Sprintf("Startup '%s' is new", name)}
	if exists {
		resp.Message = fmt.Sprintf("Startup '%s' already exists in our database", name)
	}
	api.WriteJSON(w, http.StatusOK, resp)
}
