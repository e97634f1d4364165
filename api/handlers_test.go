package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/receiving-engine/engine"
	"github.com/warp/receiving-engine/engine/store"
	"github.com/warp/receiving-engine/receiving"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	mem := store.NewMemory()
	im, err := receiving.NewImporter(receiving.DefaultConfig(), mem)
	require.NoError(t, err)
	return NewRouter(NewHandler(im, mem, NewMetrics()))
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleRows() []engine.RawRecord {
	return []engine.RawRecord{
		{
			"ReceiptNo":             "R1",
			"Replen/Balance Order#": "100.0",
			"Cust Sys No":           "S1",
			"EDI Order Type":        "BALANCE-IN",
			"Country":               "KR",
			"Quantity":              "5",
			"PutAwayDate":           "2024-02-03 10:30:00",
		},
		{
			"ReceiptNo":             "R1",
			"Replen/Balance Order#": "100",
			"Cust Sys No":           "S1",
			"EDI Order Type":        "BALANCE-IN",
			"Country":               "KR",
			"Quantity":              "3",
			"PutAwayDate":           "2024-02-03 10:30:00",
		},
	}
}

func TestImportEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/imports", ImportRequest{Rows: sampleRows()})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ImportResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Summary.Processed)
	assert.Equal(t, 1, resp.Summary.Folded)
	assert.Equal(t, 1, resp.Summary.Inserts)
}

func TestImportEndpointRejectsEmptyBatch(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/imports", ImportRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Error)
}

func TestImportEndpointRejectsMalformedJSON(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/imports", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconcileEndpointCleanAfterImport(t *testing.T) {
	router := newTestRouter(t)
	rows := sampleRows()

	w := postJSON(t, router, "/api/imports", ImportRequest{Rows: rows})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, router, "/api/reconciliation", ReconcileRequest{Rows: rows})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ReconcileResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Clean)
}

func TestReconcileEndpointReportsDrift(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/imports", ImportRequest{Rows: sampleRows()})
	require.Equal(t, http.StatusOK, w.Code)

	drifted := sampleRows()[:1]
	drifted[0]["Quantity"] = "9"
	w = postJSON(t, router, "/api/reconciliation", ReconcileRequest{Rows: drifted})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ReconcileResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Clean)
	assert.NotEmpty(t, resp.Report.FieldMismatches)
}

func TestListRecordsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/imports", ImportRequest{Rows: sampleRows()})
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/records/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RecordsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "R1", resp.Records[0].ReceiptID)
	assert.Equal(t, int64(8), resp.Records[0].Quantity)
	assert.Equal(t, "WK01", resp.Records[0].FiscalWeek)
}

func TestListRecordsDateFilter(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/imports", ImportRequest{Rows: sampleRows()})
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/records/?from=2024-02-01&to=2024-02-28", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var inRange RecordsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&inRange))
	assert.Equal(t, 1, inRange.Count)

	req = httptest.NewRequest(http.MethodGet, "/api/records/?from=2024-03-01&to=2024-03-31", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var outOfRange RecordsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&outOfRange))
	assert.Equal(t, 0, outOfRange.Count)
}

func TestListRecordsBadDate(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/records/?from=02-2024", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/imports", ImportRequest{Rows: sampleRows()})
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "receiving_import_runs_total 1")
}
