// Package startups serves pitch-deck submission and the investor board.
package startups

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"investor_intel/pkg/api"
	"investor_intel/pkg/core/logging"
	"investor_intel/pkg/core/pipeline"
	"investor_intel/pkg/core/store"
)

const maxUploadBytes = 50 << 20

// DeckRunner processes one uploaded deck. pipeline.DeckPipeline implements it.
type DeckRunner interface {
	Run(ctx context.Context, in pipeline.DeckInput) (*pipeline.DeckResult, error)
}

// StartupStore reads startups and investor statuses. store.DeckRepo implements it.
type StartupStore interface {
	GetByID(ctx context.Context, id string) (*store.Deck, error)
	ListByStatus(ctx context.Context, investorID int64, status string) ([]store.StartupRef, error)
	SetStatus(ctx context.Context, investorID int64, startupID, status string) error
}

// Presigner issues download links. objectstore.Store implements it.
type Presigner interface {
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type ProcessResponse struct {
	Deck         *store.Deck `json:"startup"`
	Chunks       int         `json:"chunks"`
	PitchDeckURL string      `json:"pitch_deck_url,omitempty"`
}

type InfoRequest struct {
	StartupID string `json:"startup_id"`
}

type InfoResponse struct {
	Status       string      `json:"status"`
	Startup      *store.Deck `json:"startup"`
	PitchDeckURL string      `json:"pitch_deck_url,omitempty"`
}

type StatusUpdateRequest struct {
	InvestorID int64  `json:"investor_id"`
	StartupID  string `json:"startup_id"`
	Status     string `json:"status"`
}

type StatusListRequest struct {
	InvestorID int64  `json:"investor_id"`
	Status     string `json:"status"`
}

type StatusListResponse struct {
	Status   string             `json:"status"`
	Startups []store.StartupRef `json:"startups"`
}

type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Handler serves the startup endpoints. Nil dependencies answer 503.
type Handler struct {
	decks     DeckRunner
	startups  StartupStore
	presigner Presigner
	expiry    time.Duration
	logger    *zap.Logger
}

func NewHandler(decks DeckRunner, startups StartupStore, presigner Presigner, expiry time.Duration, logger *zap.Logger) *Handler {
	return &Handler{decks: decks, startups: startups, presigner: presigner, expiry: expiry, logger: logging.OrNop(logger)}
}

// HandleProcessPitchDeck serves POST /api/process-pitch-deck. The body is
// multipart: a PDF in "file" plus optional startup_name, industry,
// website_url, funding_amount and investor_id fields.
func (h *Handler) HandleProcessPitchDeck(w http.ResponseWriter, r *http.Request) {
	if api.Preflight(w, r, "POST") || !api.AllowMethod(w, r, http.MethodPost) {
		return
	}
	if h.decks == nil {
		api.WriteError(w, http.StatusServiceUnavailable, "pitch-deck processing is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.WriteError(w, http.StatusRequestEntityTooLarge, "pitch deck is too large")
			return
		}
		api.WriteError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	var investorID int64
	if v := strings.TrimSpace(r.FormValue("investor_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid investor_id")
			return
		}
		investorID = id
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		api.WriteError(w, http.StatusBadRequest, "only PDF pitch decks are accepted")
		return
	}

	path, cleanup, err := spool(file)
	if err != nil {
		h.logger.Error("spool upload failed", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "failed to save upload")
		return
	}
	defer cleanup()

	res, err := h.decks.Run(r.Context(), pipeline.DeckInput{
		StartupName:      r.FormValue("startup_name"),
		Industry:         r.FormValue("industry"),
		Website:          r.FormValue("website_url"),
		FundingAsk:       r.FormValue("funding_amount"),
		PDFPath:          path,
		OriginalFilename: header.Filename,
	})
	switch {
	case errors.Is(err, pipeline.ErrStartupExists):
		api.WriteError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.logger.Error("pitch deck processing failed", zap.String("file", header.Filename), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "pitch deck processing failed")
		return
	}

	if investorID != 0 && h.startups != nil {
		if err := h.startups.SetStatus(r.Context(), investorID, res.Deck.ID, store.StatusNew); err != nil {
			h.logger.Warn("map startup to investor failed", zap.Int64("investor_id", investorID), zap.Error(err))
		}
	}

	api.WriteJSON(w, http.StatusOK, ProcessResponse{
		Deck:         res.Deck,
		Chunks:       res.Chunks,
		PitchDeckURL: h.link(r.Context(), res.Deck.ObjectKey),
	})
}

// spool copies an upload to a temp file the summarizer can read by path.
func spool(src io.Reader) (string, func(), error) {
	dir, err := os.MkdirTemp("", "pitchdeck-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	path := filepath.Join(dir, "pitch_deck.pdf")
	dst, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		cleanup()
		return "", nil, err
	}
	if err := dst.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

// HandleStartupInfo serves POST /api/fetch-startup-info.
func (h *Handler) HandleStartupInfo(w http.ResponseWriter, r *http.Request) {
	if api.Preflight(w, r, "POST") || !api.AllowMethod(w, r, http.MethodPost) {
		return
	}
	if h.startups == nil {
		api.WriteError(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}

	var req InfoRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	d, err := h.startups.GetByID(r.Context(), strings.TrimSpace(req.StartupID))
	switch {
	case errors.Is(err, store.ErrStartupNotFound):
		api.WriteError(w, http.StatusNotFound, "Startup not found")
		return
	case err != nil:
		h.logger.Error("startup lookup failed", zap.String("startup_id", req.StartupID), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "startup lookup failed")
		return
	}
	api.WriteJSON(w, http.StatusOK, InfoResponse{Status: "success", Startup: d, PitchDeckURL: h.link(r.Context(), d.ObjectKey)})
}

// HandleUpdateStatus serves POST /api/update-startup-status. Status is a
// dashboard label such as "Not Viewed" or "Decision Pending".
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if api.Preflight(w, r, "POST") || !api.AllowMethod(w, r, http.MethodPost) {
		return
	}

	var req StatusUpdateRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	status, err := store.ParseStatus(req.Status)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	if h.startups == nil {
		api.WriteError(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}

	err = h.startups.SetStatus(r.Context(), req.InvestorID, strings.TrimSpace(req.StartupID), status)
	switch {
	case errors.Is(err, store.ErrStartupNotFound):
		api.WriteError(w, http.StatusNotFound, "Startup not found")
		return
	case err != nil:
		h.logger.Error("status update failed",
			zap.Int64("investor_id", req.InvestorID),
			zap.String("startup_id", req.StartupID),
			zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "status update failed")
		return
	}
	api.WriteJSON(w, http.StatusOK, MessageResponse{Status: "success", Message: "Status updated to " + status})
}

// HandleListByStatus serves POST /api/fetch-startups-by-status.
func (h *Handler) HandleListByStatus(w http.ResponseWriter, r *http.Request) {
	if api.Preflight(w, r, "POST") || !api.AllowMethod(w, r, http.MethodPost) {
		return
	}

	var req StatusListRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	status, err := store.ParseStatus(req.Status)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	if h.startups == nil {
		api.WriteError(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}

	refs, err := h.startups.ListByStatus(r.Context(), req.InvestorID, status)
	if err != nil {
		h.logger.Error("status listing failed", zap.Int64("investor_id", req.InvestorID), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "status listing failed")
		return
	}
	if refs == nil {
		refs = []store.StartupRef{}
	}
	api.WriteJSON(w, http.StatusOK, StatusListResponse{Status: "success", Startups: refs})
}

// link presigns key, returning "" when there is nothing to link.
func (h *Handler) link(ctx context.Context, key string) string {
	if h.presigner == nil || key == "" {
		return ""
	}
	url, err := h.presigner.PresignGet(ctx, key, h.expiry)
	if err != nil {
		h.logger.Warn("presign pitch deck failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return url
}
