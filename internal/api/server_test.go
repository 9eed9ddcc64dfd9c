package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gogsea/adapters/rng"
	statsenrichment "gogsea/adapters/stats/enrichment"
	"gogsea/app"
	"gogsea/domain/core"
	"gogsea/internal"
	"gogsea/internal/testkit"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	kit     *testkit.TestKit
	handler http.Handler
}

func newTestServer(t *testing.T, maxBody int64) *testServer {
	t.Helper()
	kit := testkit.NewTestKit()
	settings := app.DefaultAnalysisSettings()
	settings.DefaultPermutations = 50
	settings.MaxPermutations = 500
	settings.Workers = 2

	service := app.NewAnalysisService(
		kit.CatalogAdapter(),
		statsenrichment.NewEngine(internal.NewNopLogger()),
		kit.RunRepository(),
		rng.NewFixedAdapter(4242),
		settings,
		internal.NewNopLogger(),
	)
	server := NewServer(service, ServerSettings{GinMode: "test", MaxBodyBytes: maxBody}, internal.NewNopLogger())
	return &testServer{kit: kit, handler: server.Handler()}
}

func (ts *testServer) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) jsonPayload(t *testing.T) string {
	t.Helper()
	records := make([][2]string, 0)
	for _, p := range ts.kit.Generator().Pairs() {
		records = append(records, [2]string{p.Symbol, p.Value})
	}
	data, err := json.Marshal(records)
	require.NoError(t, err)
	return string(data)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthAndSpecies(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = ts.do(http.MethodGet, "/species", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"species":["human"]}`, rec.Body.String())
}

func TestAnalyse_JSONPayload(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(http.MethodPost, "/analyse?nperms=100&dataSetSizeMin=5&dataSetSizeMax=200", "application/json", ts.jsonPayload(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "4242", rec.Header().Get(HeaderSeed))
	_, err := uuid.Parse(rec.Header().Get(HeaderRunID))
	assert.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.NotEmpty(t, rows)
	first := rows[0]
	for _, key := range []string{"pathway", "hitCount", "score", "normalizedScore", "pvalue", "fdr"} {
		assert.Contains(t, first, key)
	}
	pathway := first["pathway"].(map[string]interface{})
	assert.Contains(t, pathway, "name")
	assert.Contains(t, pathway, "stId")
}

func TestAnalyse_TextMatchesJSON(t *testing.T) {
	ts := newTestServer(t, 0)

	fromJSON := ts.do(http.MethodPost, "/analyse?seed=7", "application/json", ts.jsonPayload(t))
	fromText := ts.do(http.MethodPost, "/analyse?seed=7", "text/plain; charset=utf-8", ts.kit.Generator().Text())
	require.Equal(t, http.StatusOK, fromJSON.Code)
	require.Equal(t, http.StatusOK, fromText.Code)

	assert.Equal(t, "7", fromText.Header().Get(HeaderSeed))
	assert.JSONEq(t, fromJSON.Body.String(), fromText.Body.String())
	assert.NotEqual(t, fromJSON.Header().Get(HeaderRunID), fromText.Header().Get(HeaderRunID))
}

func TestAnalyse_EmptyPayload(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(http.MethodPost, "/analyse", "application/json", "[]")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestAnalyse_Errors(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		contentType string
		body        string
		status      int
		code        string
	}{
		{"malformed json", "/analyse", "application/json", `[["TP53", "1.0"]`, http.StatusBadRequest, "INVALID_INPUT"},
		{"non-numeric value", "/analyse", "text/plain", "TP53\thigh\n", http.StatusBadRequest, "INVALID_INPUT"},
		{"missing value", "/analyse", "text/plain", "TP53\n", http.StatusBadRequest, "INVALID_INPUT"},
		{"nperms not a number", "/analyse?nperms=many", "text/plain", "TP53\t1\n", http.StatusBadRequest, "CONFIG_INVALID"},
		{"nperms zero", "/analyse?nperms=0", "text/plain", "TP53\t1\n", http.StatusBadRequest, "CONFIG_INVALID"},
		{"nperms above limit", "/analyse?nperms=100000", "text/plain", "TP53\t1\n", http.StatusBadRequest, "CONFIG_INVALID"},
		{"inverted bounds", "/analyse?dataSetSizeMin=50&dataSetSizeMax=10", "text/plain", "TP53\t1\n", http.StatusBadRequest, "CONFIG_INVALID"},
		{"bad seed", "/analyse?seed=abc", "text/plain", "TP53\t1\n", http.StatusBadRequest, "CONFIG_INVALID"},
		{"unknown species", "/analyse?species=zebrafish", "text/plain", "TP53\t1\n", http.StatusBadRequest, "CONFIG_INVALID"},
	}

	ts := newTestServer(t, 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, tt.target, tt.contentType, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestAnalyse_CatalogUnavailable(t *testing.T) {
	ts := newTestServer(t, 0)
	ts.kit.CatalogAdapter().Fail(core.SpeciesMouse, errors.New("connection refused"))

	rec := ts.do(http.MethodPost, "/analyse?species=mouse", "text/plain", ts.kit.Generator().Text())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "CATALOG_UNAVAILABLE", decodeError(t, rec).Code)
}

func TestAnalyse_BodyLimit(t *testing.T) {
	ts := newTestServer(t, 64)

	rec := ts.do(http.MethodPost, "/analyse", "text/plain", ts.kit.Generator().Text())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "INVALID_INPUT", body.Code)
	assert.Contains(t, body.Error, "exceeds 64 bytes")
}

func TestRuns(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(http.MethodPost, "/analyse?nperms=20", "text/plain", ts.kit.Generator().Text())
	require.Equal(t, http.StatusOK, rec.Code)
	runID := rec.Header().Get(HeaderRunID)

	rec = ts.do(http.MethodGet, "/runs/"+runID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var run struct {
		ID      string            `json:"id"`
		Seed    int64             `json:"seed"`
		NPerms  int               `json:"nperms"`
		Species string            `json:"species"`
		Results []json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, runID, run.ID)
	assert.Equal(t, int64(4242), run.Seed)
	assert.Equal(t, 20, run.NPerms)
	assert.Equal(t, "human", run.Species)
	assert.NotEmpty(t, run.Results)

	rec = ts.do(http.MethodGet, "/runs?limit=5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Runs []struct {
			ID string `json:"id"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, runID, list.Runs[0].ID)

	rec = ts.do(http.MethodGet, "/runs/"+uuid.NewString(), "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)

	rec = ts.do(http.MethodGet, "/runs/not-a-run", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/runs?limit=-3", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
