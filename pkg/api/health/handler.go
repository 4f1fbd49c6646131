package health

import (
	"context"
	"net/http"
	"time"

	"investor_intel/pkg/api"
	"investor_intel/pkg/core/config"
)

// Check pings one dependency. A nil Check marks the component disabled.
type Check func(ctx context.Context) error

type Response struct {
	Status     string            `json:"status"`
	MissingEnv []string          `json:"missing_env"`
	Components map[string]string `json:"components"`
}

// Handler reports configuration and dependency health.
type Handler struct {
	cfg    *config.Config
	checks map[string]Check
}

// NewHandler creates a health handler over named component checks.
func NewHandler(cfg *config.Config, checks map[string]Check) *Handler {
	return &Handler{cfg: cfg, checks: checks}
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if api.Preflight(w, r, "GET") || !api.AllowMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := Response{
		Status:     "ok",
		MissingEnv: h.cfg.MissingSecrets(),
		Components: make(map[string]string, len(h.checks)),
	}
	if len(resp.MissingEnv) > 0 {
		resp.Status = "degraded"
	} else {
		resp.MissingEnv = []string{}
	}
	for name, check := range h.checks {
		if check == nil {
			resp.Components[name] = "disabled"
			continue
		}
		if err := check(ctx); err != nil {
			resp.Components[name] = "error: " + err.Error()
			resp.Status = "degraded"
		} else {
			resp.Components[name] = "ok"
		}
	}

	api.WriteJSON(w, http.StatusOK, resp)
}
