package companies

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investor_intel/pkg/core/refine"
	"investor_intel/pkg/core/store"
)

type MockCompanies struct {
	SearchCompaniesFunc func(ctx context.Context, f store.CompanyFilter) ([]refine.RefinedRecord, error)
}

func (m *MockCompanies) SearchCompanies(ctx context.Context, f store.CompanyFilter) ([]refine.RefinedRecord, error) {
	return m.SearchCompaniesFunc(ctx, f)
}

type MockStartups struct {
	StartupExistsFunc func(ctx context.Context, name string) (bool, error)
}

func (m *MockStartups) StartupExists(ctx context.Context, name string) (bool, error) {
	return m.StartupExistsFunc(ctx, name)
}

func TestHandleList(t *testing.T) {
	companies := &MockCompanies{SearchCompaniesFunc: func(_ context.Context, f store.CompanyFilter) ([]refine.RefinedRecord, error) {
		assert.Equal(t, "fintech", f.Industry)
		assert.Equal(t, "USA", f.Country)
		require.NotNil(t, f.MinFunding)
		assert.Equal(t, 5e6, *f.MinFunding)
		assert.Equal(t, 10, f.Limit)
		return []refine.RefinedRecord{{Company: "Acme"}}, nil
	}}
	h := NewHandler(companies, nil, nil)

	w := httptest.NewRecorder()
	h.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/companies?industry=fintech&country=USA&min_funding=%245M&limit=10", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "Acme", resp.Companies[0].Company)
}

func TestHandleList_BadParams(t *testing.T) {
	h := NewHandler(&MockCompanies{}, nil, nil)
	for _, q := range []string{"min_funding=lots", "limit=-1", "limit=ten"} {
		w := httptest.NewRecorder()
		h.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/companies?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestHandleList_NotConfigured(t *testing.T) {
	w := httptest.NewRecorder()
	NewHandler(nil, nil, nil).HandleList(w, httptest.NewRequest(http.MethodGet, "/api/companies", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func check(h *Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.HandleCheckStartupExists(w, httptest.NewRequest(http.MethodPost, "/api/check-startup-exists", strings.NewReader(body)))
	return w
}

func TestHandleCheckStartupExists(t *testing.T) {
	startups := &MockStartups{StartupExistsFunc: func(_ context.Context, name string) (bool, error) {
		return strings.EqualFold(name, "acme"), nil
	}}
	h := NewHandler(nil, startups, nil)

	w := check(h, `{"startup_name": "ACME"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"exists": true, "message": "Startup 'ACME' already exists in our database"}`, w.Body.String())

	w = check(h, `{"startup_name": "Beta"}`)
	assert.JSONEq(t, `{"exists": false, "message": "Startup 'Beta' is new"}`, w.Body.String())

	w = check(h, `{"startup_name": "unknown"}`)
	assert.JSONEq(t, `{"exists": false, "message": "Valid startup name not provided"}`, w.Body.String())
}

func TestHandleCheckStartupExists_LookupError(t *testing.T) {
	startups := &MockStartups{StartupExistsFunc: func(context.Context, string) (bool, error) {
		return false, errors.New("db down")
	}}
	assert.Equal(t, http.StatusInternalServerError, check(NewHandler(nil, startups, nil), `{"startup_name": "Acme"}`).Code)
}
