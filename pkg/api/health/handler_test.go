package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investor_intel/pkg/core/config"
)

func get(h *Handler) Response {
	w := httptest.NewRecorder()
	h.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	var resp Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func TestHandleHealth_OK(t *testing.T) {
	cfg := config.Default()
	cfg.Database.URL = "postgres://localhost/db"
	cfg.Gemini.APIKey = "key"
	cfg.Storage.Bucket = "bucket"

	resp := get(NewHandler(cfg, map[string]Check{
		"database": func(context.Context) error { return nil },
		"storage":  nil,
	}))
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.MissingEnv)
	assert.Equal(t, map[string]string{"database": "ok", "storage": "disabled"}, resp.Components)
}

func TestHandleHealth_Degraded(t *testing.T) {
	resp := get(NewHandler(config.Default(), map[string]Check{
		"database": func(context.Context) error { return errors.New("connection refused") },
	}))
	assert.Equal(t, "degraded", resp.Status)
	assert.Contains(t, resp.MissingEnv, "GEMINI_API_KEY")
	assert.Equal(t, "error: connection refused", resp.Components["database"])
}

func TestHandleHealth_Method(t *testing.T) {
	w := httptest.NewRecorder()
	NewHandler(config.Default(), nil).HandleHealth(w, httptest.NewRequest(http.MethodPost, "/health", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
