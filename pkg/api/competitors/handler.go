// Package competitors serves the industry competitor landscape.
package competitors

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"investor_intel/pkg/api"
	"investor_intel/pkg/core/logging"
	"investor_intel/pkg/core/store"
)

// CompetitorSource ranks companies in an industry. store.CompanyRepo implements it.
type CompetitorSource interface {
	TopCompetitors(ctx context.Context, industry string, limit int) ([]store.Competitor, error)
}

// ReportLister lists indexed industry reports. store.ReportRepo implements it.
type ReportLister interface {
	ListByIndustry(ctx context.Context, industry string) ([]store.Report, error)
}

type Request struct {
	Industry string `json:"industry"`
	// Limit defaults to 5.
	Limit int `json:"limit"`
}

type Response struct {
	Status           string             `json:"status"`
	Competitors      []store.Competitor `json:"competitors"`
	CityDistribution map[string]int     `json:"city_distribution"`
	IndustryReports  []store.Report     `json:"industry_reports"`
}

type Handler struct {
	companies CompetitorSource
	reports   ReportLister
	logger    *zap.Logger
}

func NewHandler(companies CompetitorSource, reports ReportLister, logger *zap.Logger) *Handler {
	return &Handler{companies: companies, reports: reports, logger: logging.OrNop(logger)}
}

// HandleCompetitors serves POST /api/get-industry-competitors. A failing
// report listing is logged and leaves industry_reports empty.
func (h *Handler) HandleCompetitors(w http.ResponseWriter, r *http.Request) {
	if api.Preflight(w, r, "POST") || !api.AllowMethod(w, r, http.MethodPost) {
		return
	}

	var req Request
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	industry := strings.TrimSpace(req.Industry)
	if industry == "" {
		api.WriteError(w, http.StatusBadRequest, "industry is required")
		return
	}
	if req.Limit < 0 {
		api.WriteError(w, http.StatusBadRequest, "limit must not be negative")
		return
	}
	if h.companies == nil {
		api.WriteError(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}

	comps, err := h.companies.TopCompetitors(r.Context(), industry, req.Limit)
	if err != nil {
		h.logger.Error("competitor lookup failed", zap.String("industry", industry), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "Error fetching competitors")
		return
	}
	if comps == nil {
		comps = []store.Competitor{}
	}

	reports := []store.Report{}
	if h.reports != nil {
		if listed, err := h.reports.ListByIndustry(r.Context(), industry); err != nil {
			h.logger.Warn("report listing failed", zap.String("industry", industry), zap.Error(err))
		} else if listed != nil {
			reports = listed
		}
	}

	api.WriteJSON(w, http.StatusOK, Response{
		Status:           "success",
		Competitors:      comps,
		CityDistribution: store.CityDistribution(comps),
		IndustryReports:  reports,
	})
}
