/*
metrics.go - Prometheus instrumentation for the API

PURPOSE:
  Counts what the pipeline did, per run, for operational dashboards:
  rows in, rows rejected or filtered, upserts out, reconciliation
  findings. The registry is private so tests can create isolated
  instances without global-state collisions.

SEE ALSO:
  - handlers.go: records metrics after each run
  - server.go: exposes the /metrics endpoint
*/
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the API's Prometheus collectors.
type Metrics struct {
	reg *prometheus.Registry

	ImportRuns    prometheus.Counter
	RowsProcessed prometheus.Counter
	RowsRejected  prometheus.Counter
	RowsFiltered  prometheus.Counter
	Inserts       prometheus.Counter
	Updates       prometheus.Counter

	ReconcileRuns     prometheus.Counter
	ReconcileFindings prometheus.Counter
}

// NewMetrics creates a registry with all collectors registered.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	importRuns := prometheus.NewCounter(prometheus.CounterOpts{Name: "receiving_import_runs_total"})
	rowsProcessed := prometheus.NewCounter(prometheus.CounterOpts{Name: "receiving_rows_processed_total"})
	rowsRejected := prometheus.NewCounter(prometheus.CounterOpts{Name: "receiving_rows_rejected_total"})
	rowsFiltered := prometheus.NewCounter(prometheus.CounterOpts{Name: "receiving_rows_filtered_total"})
	inserts := prometheus.NewCounter(prometheus.CounterOpts{Name: "receiving_upsert_inserts_total"})
	updates := prometheus.NewCounter(prometheus.CounterOpts{Name: "receiving_upsert_updates_total"})
	reconcileRuns := prometheus.NewCounter(prometheus.CounterOpts{Name: "receiving_reconcile_runs_total"})
	reconcileFindings := prometheus.NewCounter(prometheus.CounterOpts{Name: "receiving_reconcile_findings_total"})

	reg.MustRegister(importRuns, rowsProcessed, rowsRejected, rowsFiltered,
		inserts, updates, reconcileRuns, reconcileFindings)

	return &Metrics{
		reg:               reg,
		ImportRuns:        importRuns,
		RowsProcessed:     rowsProcessed,
		RowsRejected:      rowsRejected,
		RowsFiltered:      rowsFiltered,
		Inserts:           inserts,
		Updates:           updates,
		ReconcileRuns:     reconcileRuns,
		ReconcileFindings: reconcileFindings,
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
