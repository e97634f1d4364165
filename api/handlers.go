/*
handlers.go - HTTP handlers for the receiving API

PURPOSE:
  Implements the HTTP endpoints. Handlers decode the request, delegate
  to the receiving.Importer or the store, and encode the response.
  Business rules live in engine/ and receiving/, not here.

ENDPOINTS:
  POST /api/imports           Import a raw extract
  POST /api/reconciliation    Reconcile an extract against the store
  GET  /api/records           List persisted records (optional date range)
  GET  /api/config            The active pipeline configuration
  GET  /healthz               Liveness probe
  GET  /metrics               Prometheus metrics

ERROR HANDLING:
  - 400: malformed JSON, empty batch, date parse failures, config errors
  - 500: store failures
  Errors return JSON: {"error": "message", "details": "..."}

  Rejected rows are NOT errors: an import with rejections still
  succeeds and reports them in the summary, so one broken row never
  blocks an extract.

SEE ALSO:
  - server.go: Route definitions
  - dto.go: Request/response types
  - receiving/importer.go: Run orchestration
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/warp/receiving-engine/engine"
	"github.com/warp/receiving-engine/receiving"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	importer *receiving.Importer
	store    engine.ReceivingStore
	metrics  *Metrics
}

// NewHandler creates a handler with its dependencies.
func NewHandler(importer *receiving.Importer, store engine.ReceivingStore, metrics *Metrics) *Handler {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Handler{importer: importer, store: store, metrics: metrics}
}

// dateRangeStore is implemented by stores that can filter by event
// date server-side. Others fall back to an in-process filter.
type dateRangeStore interface {
	RecordsByDateRange(ctx context.Context, from, to time.Time) ([]engine.NormalizedRecord, error)
}

// =============================================================================
// IMPORT ENDPOINTS
// =============================================================================

// ImportBatch runs one import over the posted extract.
// POST /api/imports
func (h *Handler) ImportBatch(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Rows) == 0 {
		writeError(w, http.StatusBadRequest, "At least one row is required", nil)
		return
	}

	summary, err := h.importer.Import(r.Context(), req.Rows)
	if err != nil {
		if engine.IsConfigError(err) || errors.Is(err, engine.ErrStructuralInput) {
			writeError(w, http.StatusBadRequest, "Invalid batch", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Import failed", err)
		return
	}

	h.metrics.ImportRuns.Inc()
	h.metrics.RowsProcessed.Add(float64(summary.Processed))
	h.metrics.RowsRejected.Add(float64(len(summary.Rejected)))
	h.metrics.RowsFiltered.Add(float64(summary.Filtered))
	h.metrics.Inserts.Add(float64(summary.Inserts))
	h.metrics.Updates.Add(float64(summary.Updates))

	writeJSON(w, http.StatusOK, ImportResponse{Summary: summary})
}

// RunReconciliation compares the posted extract against the store.
// POST /api/reconciliation
func (h *Handler) RunReconciliation(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	report, err := h.importer.Reconcile(r.Context(), req.Rows)
	if err != nil {
		if engine.IsConfigError(err) || errors.Is(err, engine.ErrStructuralInput) {
			writeError(w, http.StatusBadRequest, "Invalid batch", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Reconciliation failed", err)
		return
	}

	h.metrics.ReconcileRuns.Inc()
	h.metrics.ReconcileFindings.Add(float64(
		len(report.MissingInPersisted) + len(report.ExtraInPersisted) + len(report.FieldMismatches)))

	writeJSON(w, http.StatusOK, ReconcileResponse{Clean: report.Clean(), Report: report})
}

// =============================================================================
// RECORD ENDPOINTS
// =============================================================================

// ListRecords returns persisted records, optionally restricted to an
// event-date range via ?from=YYYY-MM-DD&to=YYYY-MM-DD.
// GET /api/records
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fromParam := r.URL.Query().Get("from")
	toParam := r.URL.Query().Get("to")

	if fromParam == "" && toParam == "" {
		records, err := h.store.ExistingRecords(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list records", err)
			return
		}
		writeJSON(w, http.StatusOK, RecordsResponse{Count: len(records), Records: toRecordDTOs(records)})
		return
	}

	from, err := parseDateParam(fromParam, time.Time{})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	to, err := parseDateParam(toParam, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return
	}
	// Inclusive upper bound: extend to the end of the day.
	to = to.Add(24*time.Hour - time.Second)

	records, err := h.recordsInRange(ctx, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list records", err)
		return
	}
	writeJSON(w, http.StatusOK, RecordsResponse{Count: len(records), Records: toRecordDTOs(records)})
}

func (h *Handler) recordsInRange(ctx context.Context, from, to time.Time) ([]engine.NormalizedRecord, error) {
	if rs, ok := h.store.(dateRangeStore); ok {
		return rs.RecordsByDateRange(ctx, from, to)
	}

	all, err := h.store.ExistingRecords(ctx)
	if err != nil {
		return nil, err
	}
	var out []engine.NormalizedRecord
	for _, rec := range all {
		if rec.EventDate == nil {
			continue
		}
		d := rec.EventDate.UTC()
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetConfig returns the active pipeline configuration.
// GET /api/config
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.importer.Config())
}

// Health is the liveness probe.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDateParam(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	return time.ParseInLocation("2006-01-02", value, time.UTC)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
