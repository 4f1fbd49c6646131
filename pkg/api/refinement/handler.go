package refinement

import (
	"net/http"

	"go.uber.org/zap"

	"investor_intel/pkg/api"
	"investor_intel/pkg/core/logging"
	"investor_intel/pkg/core/refine"
)

const (
	maxRows      = 50000
	maxBodyBytes = 32 << 20
)

type Request struct {
	Rows []map[string]string `json:"rows"`
	// Persisted, when set, limits the response to rows not already in it.
	Persisted []refine.RefinedRecord `json:"persisted,omitempty"`
}

type Response struct {
	Rows  []refine.RefinedRecord `json:"rows"`
	Count int                    `json:"count"`
}

// Handler refines raw Growjo rows.
type Handler struct {
	workers  int
	maxBytes int64
	logger   *zap.Logger
}

func NewHandler(workers int, logger *zap.Logger) *Handler {
	return &Handler{workers: workers, maxBytes: maxBodyBytes, logger: logging.OrNop(logger)}
}

func (h *Handler) HandleRefine(w http.ResponseWriter, r *http.Request) {
	if api.Preflight(w, r, "POST") || !api.AllowMethod(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	var req Request
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if len(req.Rows) > maxRows {
		api.WriteError(w, http.StatusRequestEntityTooLarge, "too many rows")
		return
	}

	raw := make([]refine.RawRecord, len(req.Rows))
	for i, cols := range req.Rows {
		raw[i] = refine.FromColumns(cols)
	}

	rows, err := refine.RefineParallel(r.Context(), raw, h.workers)
	if err != nil {
		h.logger.Warn("refine request aborted", zap.Error(err))
		api.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if req.Persisted != nil {
		rows = refine.Diff(rows, req.Persisted)
	}
	if rows == nil {
		rows = []refine.RefinedRecord{}
	}

	api.WriteJSON(w, http.StatusOK, Response{Rows: rows, Count: len(rows)})
}
