package refinement

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(h *Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.HandleRefine(w, httptest.NewRequest(http.MethodPost, "/api/refine", strings.NewReader(body)))
	return w
}

func TestHandleRefine(t *testing.T) {
	w := post(NewHandler(2, nil), `{"rows": [
		{"RANK": "N/A", "Company": "Acme", "Funding": "$1M", "Employees": "1,200", "Emp_Growth_Percent": "12%"},
		{"rank": "7", "company": "Beta", "revenue": "CA$1K"}
	]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)

	acme := resp.Rows[0]
	assert.Nil(t, acme.Rank)
	assert.Equal(t, "Acme", acme.Company)
	assert.Equal(t, 1e6, *acme.FundingUSD)
	assert.Equal(t, int64(1200), *acme.Employees)
	assert.Equal(t, 12.0, *acme.EmpGrowthPercent)

	beta := resp.Rows[1]
	assert.Equal(t, int64(7), *beta.Rank)
	assert.Equal(t, 730.0, *beta.RevenueUSD)
	assert.Nil(t, beta.FundingUSD)
}

func TestHandleRefine_PersistedRowsAreExcluded(t *testing.T) {
	h := NewHandler(1, nil)
	first := post(h, `{"rows": [{"company": "Acme", "funding": "$1M"}]}`)
	require.Equal(t, http.StatusOK, first.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &resp))
	persisted, err := json.Marshal(resp.Rows)
	require.NoError(t, err)

	second := post(h, `{"rows": [{"company": "Acme", "funding": "$1M"}, {"company": "Beta"}], "persisted": `+string(persisted)+`}`)
	require.Equal(t, http.StatusOK, second.Code)
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Beta", resp.Rows[0].Company)
}

func TestHandleRefine_Empty(t *testing.T) {
	w := post(NewHandler(1, nil), `{"rows": []}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rows": [], "count": 0}`, w.Body.String())
}

func TestHandleRefine_BadBody(t *testing.T) {
	w := post(NewHandler(1, nil), `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRefine_BodyLimit(t *testing.T) {
	h := NewHandler(1, nil)
	h.maxBytes = 128

	w := post(h, `{"rows": [{"company": "`+strings.Repeat("A", 256)+`"}]}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = post(h, `{"rows": [{"company": "Acme"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)
}
