package startups

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investor_intel/pkg/core/pipeline"
	"investor_intel/pkg/core/store"
)

type MockDecks struct {
	RunFunc func(ctx context.Context, in pipeline.DeckInput) (*pipeline.DeckResult, error)
}

func (m *MockDecks) Run(ctx context.Context, in pipeline.DeckInput) (*pipeline.DeckResult, error) {
	return m.RunFunc(ctx, in)
}

type MockStartups struct {
	GetByIDFunc      func(ctx context.Context, id string) (*store.Deck, error)
	ListByStatusFunc func(ctx context.Context, investorID int64, status string) ([]store.StartupRef, error)
	SetStatusFunc    func(ctx context.Context, investorID int64, startupID, status string) error
}

func (m *MockStartups) GetByID(ctx context.Context, id string) (*store.Deck, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *MockStartups) ListByStatus(ctx context.Context, investorID int64, status string) ([]store.StartupRef, error) {
	return m.ListByStatusFunc(ctx, investorID, status)
}

func (m *MockStartups) SetStatus(ctx context.Context, investorID int64, startupID, status string) error {
	return m.SetStatusFunc(ctx, investorID, startupID, status)
}

type MockPresigner struct {
	PresignGetFunc func(ctx context.Context, key string, expiry time.Duration) (string, error)
}

func (m *MockPresigner) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return m.PresignGetFunc(ctx, key, expiry)
}

func presigner() *MockPresigner {
	return &MockPresigner{PresignGetFunc: func(_ context.Context, key string, expiry time.Duration) (string, error) {
		return fmt.Sprintf("https://bucket.example/%s?ttl=%s", key, expiry), nil
	}}
}

func upload(t *testing.T, filename string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 deck"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/process-pitch-deck", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func postJSON(handle http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handle(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return w
}

// --- process-pitch-deck ---

func TestHandleProcessPitchDeck(t *testing.T) {
	var spooled string
	decks := &MockDecks{RunFunc: func(_ context.Context, in pipeline.DeckInput) (*pipeline.DeckResult, error) {
		assert.Equal(t, "Acme", in.StartupName)
		assert.Equal(t, "Fintech", in.Industry)
		assert.Equal(t, "$2M", in.FundingAsk)
		assert.Equal(t, "Acme Deck.pdf", in.OriginalFilename)
		data, err := os.ReadFile(in.PDFPath)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 deck", string(data))
		spooled = in.PDFPath
		return &pipeline.DeckResult{
			Deck:   &store.Deck{ID: "id-1", StartupName: "Acme", ObjectKey: "pitchdecks/Fintech/acme.pdf"},
			Chunks: 3,
		}, nil
	}}
	var mapped []string
	startups := &MockStartups{SetStatusFunc: func(_ context.Context, investorID int64, startupID, status string) error {
		mapped = append(mapped, fmt.Sprintf("%d/%s/%s", investorID, startupID, status))
		return nil
	}}
	h := NewHandler(decks, startups, presigner(), time.Hour, nil)

	w := httptest.NewRecorder()
	h.HandleProcessPitchDeck(w, upload(t, "Acme Deck.pdf", map[string]string{
		"startup_name":   "Acme",
		"industry":       "Fintech",
		"funding_amount": "$2M",
		"investor_id":    "7",
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ProcessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Acme", resp.Deck.StartupName)
	assert.Equal(t, 3, resp.Chunks)
	assert.Equal(t, "https://bucket.example/pitchdecks/Fintech/acme.pdf?ttl=1h0m0s", resp.PitchDeckURL)
	assert.Equal(t, []string{"7/id-1/New"}, mapped)

	_, err := os.Stat(spooled)
	assert.True(t, os.IsNotExist(err), "spooled upload should be removed")
}

func TestHandleProcessPitchDeck_Rejects(t *testing.T) {
	decks := &MockDecks{RunFunc: func(context.Context, pipeline.DeckInput) (*pipeline.DeckResult, error) {
		t.Fatal("pipeline must not run")
		return nil, nil
	}}
	h := NewHandler(decks, nil, nil, time.Hour, nil)

	cases := map[string]*http.Request{
		"missing file": upload(t, "", map[string]string{"startup_name": "Acme"}),
		"not a pdf":    upload(t, "deck.pptx", nil),
		"bad investor": upload(t, "deck.pdf", map[string]string{"investor_id": "seven"}),
		"not multipart": httptest.NewRequest(http.MethodPost, "/api/process-pitch-deck",
			strings.NewReader(`{"startup_name":"Acme"}`)),
	}
	for name, r := range cases {
		w := httptest.NewRecorder()
		h.HandleProcessPitchDeck(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestHandleProcessPitchDeck_Duplicate(t *testing.T) {
	decks := &MockDecks{RunFunc: func(context.Context, pipeline.DeckInput) (*pipeline.DeckResult, error) {
		return nil, fmt.Errorf("%w: Acme", pipeline.ErrStartupExists)
	}}
	w := httptest.NewRecorder()
	NewHandler(decks, nil, nil, time.Hour, nil).HandleProcessPitchDeck(w, upload(t, "deck.pdf", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleProcessPitchDeck_Failure(t *testing.T) {
	decks := &MockDecks{RunFunc: func(context.Context, pipeline.DeckInput) (*pipeline.DeckResult, error) {
		return nil, errors.New("summarizer down")
	}}
	w := httptest.NewRecorder()
	NewHandler(decks, nil, nil, time.Hour, nil).HandleProcessPitchDeck(w, upload(t, "deck.pdf", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "summarizer down")
}

func TestHandleProcessPitchDeck_NotConfigured(t *testing.T) {
	w := httptest.NewRecorder()
	NewHandler(nil, nil, nil, time.Hour, nil).HandleProcessPitchDeck(w, upload(t, "deck.pdf", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// --- fetch-startup-info ---

func TestHandleStartupInfo(t *testing.T) {
	startups := &MockStartups{GetByIDFunc: func(_ context.Context, id string) (*store.Deck, error) {
		if id == "id-1" {
			return &store.Deck{ID: id, StartupName: "Acme", ObjectKey: "pitchdecks/AI/acme.pdf"}, nil
		}
		return nil, fmt.Errorf("%w: %s", store.ErrStartupNotFound, id)
	}}
	h := NewHandler(nil, startups, presigner(), time.Minute, nil)

	w := postJSON(h.HandleStartupInfo, "/api/fetch-startup-info", `{"startup_id":"id-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp InfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Acme", resp.Startup.StartupName)
	assert.Equal(t, "https://bucket.example/pitchdecks/AI/acme.pdf?ttl=1m0s", resp.PitchDeckURL)

	w = postJSON(h.HandleStartupInfo, "/api/fetch-startup-info", `{"startup_id":"missing"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Startup not found"}`, w.Body.String())
}

func TestHandleStartupInfo_PresignFailureOmitsLink(t *testing.T) {
	startups := &MockStartups{GetByIDFunc: func(_ context.Context, id string) (*store.Deck, error) {
		return &store.Deck{ID: id, ObjectKey: "gone.pdf"}, nil
	}}
	failing := &MockPresigner{PresignGetFunc: func(context.Context, string, time.Duration) (string, error) {
		return "", errors.New("expired credentials")
	}}
	w := postJSON(NewHandler(nil, startups, failing, time.Minute, nil).HandleStartupInfo, "/api/fetch-startup-info", `{"startup_id":"x"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "pitch_deck_url")
}

// --- update-startup-status ---

func TestHandleUpdateStatus(t *testing.T) {
	var got string
	startups := &MockStartups{SetStatusFunc: func(_ context.Context, investorID int64, startupID, status string) error {
		got = fmt.Sprintf("%d/%s/%s", investorID, startupID, status)
		return nil
	}}
	h := NewHandler(nil, startups, nil, time.Hour, nil)

	w := postJSON(h.HandleUpdateStatus, "/api/update-startup-status", `{"investor_id":3,"startup_id":"id-1","status":"Decision Pending"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3/id-1/Reviewed", got)
	assert.JSONEq(t, `{"status":"success","message":"Status updated to Reviewed"}`, w.Body.String())

	w = postJSON(h.HandleUpdateStatus, "/api/update-startup-status", `{"investor_id":3,"startup_id":"id-1","status":"Not Viewed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3/id-1/New", got)
}

func TestHandleUpdateStatus_InvalidStatus(t *testing.T) {
	startups := &MockStartups{SetStatusFunc: func(context.Context, int64, string, string) error {
		t.Fatal("store must not be called")
		return nil
	}}
	w := postJSON(NewHandler(nil, startups, nil, time.Hour, nil).HandleUpdateStatus,
		"/api/update-startup-status", `{"investor_id":3,"startup_id":"id-1","status":"Archived"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid status"}`, w.Body.String())
}

func TestHandleUpdateStatus_UnknownStartup(t *testing.T) {
	startups := &MockStartups{SetStatusFunc: func(_ context.Context, _ int64, id, _ string) error {
		return fmt.Errorf("%w: %s", store.ErrStartupNotFound, id)
	}}
	w := postJSON(NewHandler(nil, startups, nil, time.Hour, nil).HandleUpdateStatus,
		"/api/update-startup-status", `{"investor_id":3,"startup_id":"nope","status":"Funded"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- fetch-startups-by-status ---

func TestHandleListByStatus(t *testing.T) {
	startups := &MockStartups{ListByStatusFunc: func(_ context.Context, investorID int64, status string) ([]store.StartupRef, error) {
		assert.Equal(t, int64(9), investorID)
		if status == store.StatusFunded {
			return []store.StartupRef{{ID: "id-1", Name: "Acme"}}, nil
		}
		return nil, nil
	}}
	h := NewHandler(nil, startups, nil, time.Hour, nil)

	w := postJSON(h.HandleListByStatus, "/api/fetch-startups-by-status", `{"investor_id":9,"status":"Funded"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","startups":[{"startup_id":"id-1","startup_name":"Acme"}]}`, w.Body.String())

	w = postJSON(h.HandleListByStatus, "/api/fetch-startups-by-status", `{"investor_id":9,"status":"Not Viewed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","startups":[]}`, w.Body.String())

	w = postJSON(h.HandleListByStatus, "/api/fetch-startups-by-status", `{"investor_id":9,"status":"Archived"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlers_NotConfigured(t *testing.T) {
	h := NewHandler(nil, nil, nil, time.Hour, nil)
	assert.Equal(t, http.StatusServiceUnavailable,
		postJSON(h.HandleStartupInfo, "/api/fetch-startup-info", `{"startup_id":"x"}`).Code)
	assert.Equal(t, http.StatusServiceUnavailable,
		postJSON(h.HandleUpdateStatus, "/api/update-startup-status", `{"investor_id":1,"startup_id":"x","status":"Funded"}`).Code)
	assert.Equal(t, http.StatusServiceUnavailable,
		postJSON(h.HandleListByStatus, "/api/fetch-startups-by-status", `{"investor_id":1,"status":"Funded"}`).Code)
}
