package competitors

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

	"investor_intel/pkg/core/store"
)

type MockCompanies struct {
	TopCompetitorsFunc func(ctx context.Context, industry string, limit int) ([]store.Competitor, error)
}

func (m *MockCompanies) TopCompetitors(ctx context.Context, industry string, limit int) ([]store.Competitor, error) {
	return m.TopCompetitorsFunc(ctx, industry, limit)
}

type MockReports struct {
	ListByIndustryFunc func(ctx context.Context, industry string) ([]store.Report, error)
}

func (m *MockReports) ListByIndustry(ctx context.Context, industry string) ([]store.Report, error) {
	return m.ListByIndustryFunc(ctx, industry)
}

func post(h *Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.HandleCompetitors(w, httptest.NewRequest(http.MethodPost, "/api/get-industry-competitors", strings.NewReader(body)))
	return w
}

func TestHandleCompetitors(t *testing.T) {
	revenue := 3e6
	companies := &MockCompanies{TopCompetitorsFunc: func(_ context.Context, industry string, limit int) ([]store.Competitor, error) {
		assert.Equal(t, "Fintech", industry)
		assert.Zero(t, limit)
		return []store.Competitor{
			{Company: "Acme", City: "Austin", RevenueUSD: &revenue},
			{Company: "Beta", City: "Austin"},
			{Company: "Gamma", City: "Boston"},
		}, nil
	}}
	reports := &MockReports{ListByIndustryFunc: func(_ context.Context, industry string) ([]store.Report, error) {
		return []store.Report{{Industry: industry, Title: "Fintech Outlook", Year: 2024}}, nil
	}}

	w := post(NewHandler(companies, reports, nil), `{"industry":" Fintech "}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.Competitors, 3)
	assert.Equal(t, 3e6, *resp.Competitors[0].RevenueUSD)
	assert.Equal(t, map[string]int{"Austin": 2, "Boston": 1}, resp.CityDistribution)
	require.Len(t, resp.IndustryReports, 1)
	assert.Equal(t, "Fintech Outlook", resp.IndustryReports[0].Title)
}

func TestHandleCompetitors_Empty(t *testing.T) {
	companies := &MockCompanies{TopCompetitorsFunc: func(_ context.Context, _ string, limit int) ([]store.Competitor, error) {
		assert.Equal(t, 10, limit)
		return nil, nil
	}}
	reports := &MockReports{ListByIndustryFunc: func(context.Context, string) ([]store.Report, error) {
		return nil, errors.New("timeout")
	}}

	w := post(NewHandler(companies, reports, nil), `{"industry":"AI","limit":10}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","competitors":[],"city_distribution":{},"industry_reports":[]}`, w.Body.String())
}

func TestHandleCompetitors_BadRequest(t *testing.T) {
	h := NewHandler(&MockCompanies{}, nil, nil)
	for _, body := range []string{`{}`, `{"industry":"  "}`, `{"industry":"AI","limit":-1}`, `{bad`} {
		assert.Equal(t, http.StatusBadRequest, post(h, body).Code, body)
	}
}

func TestHandleCompetitors_Errors(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, post(NewHandler(nil, nil, nil), `{"industry":"AI"}`).Code)

	failing := &MockCompanies{TopCompetitorsFunc: func(context.Context, string, int) ([]store.Competitor, error) {
		return nil, errors.New("connection reset")
	}}
	w := post(NewHandler(failing, nil, nil), `{"industry":"AI"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}
