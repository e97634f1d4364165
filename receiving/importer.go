/*
importer.go - Import and reconciliation runs

PURPOSE:
  The Importer owns one configured pipeline against one store. An
  import run is: normalize the batch, fold it, plan against the
  store's key snapshot, apply the plan. A reconciliation run
  recomputes the truth view from a fresh extract and compares it to
  the persisted snapshot.

ACCOUNTING:
  Every input row is accounted for in the ImportSummary: emitted,
  rejected (with reason), or filtered. A run never drops a row
  silently.

IDEMPOTENCE:
  Re-importing the same extract is safe: upserts are last-write-wins
  per natural key, and a second run produces an identical plan with
  zero inserts.
*/
package receiving

import (
	"context"
	"fmt"

	"github.com/warp/receiving-engine/engine"
)

// Importer runs import and reconciliation passes for one store.
type Importer struct {
	cfg   engine.Config
	store engine.ReceivingStore
}

// NewImporter validates the configuration once, up front. A bad
// configuration never reaches row processing.
func NewImporter(cfg engine.Config, store engine.ReceivingStore) (*Importer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Importer{cfg: cfg, store: store}, nil
}

// Config returns the importer's immutable configuration.
func (im *Importer) Config() engine.Config { return im.cfg }

// RejectedRow is one rejected input row in a run summary.
type RejectedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportSummary accounts for every row of one import run.
type ImportSummary struct {
	Processed int           `json:"processed"`
	Emitted   int           `json:"emitted"` // normalized rows before folding
	Folded    int           `json:"folded"`  // distinct natural keys persisted
	Filtered  int           `json:"filtered"`
	Rejected  []RejectedRow `json:"rejected"`
	Inserts   int           `json:"inserts"`
	Updates   int           `json:"updates"`
}

// Import runs one full pass over a raw extract and applies the
// resulting plan to the store.
func (im *Importer) Import(ctx context.Context, batch []engine.RawRecord) (*ImportSummary, error) {
	res, err := engine.NormalizeBatch(im.cfg, batch)
	if err != nil {
		return nil, err
	}

	folded := engine.Fold(im.cfg, res.Records)

	existing, err := im.store.ExistingKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load key snapshot: %w", err)
	}
	ops, err := engine.Plan(folded, existing)
	if err != nil {
		return nil, err
	}
	if err := im.store.ApplyOps(ctx, ops); err != nil {
		return nil, fmt.Errorf("apply %d ops: %w", len(ops), err)
	}

	if ts, ok := im.store.(engine.TaxonomyStore); ok {
		if err := ts.SyncTaxonomy(ctx, im.cfg.Taxonomy); err != nil {
			return nil, fmt.Errorf("sync taxonomy: %w", err)
		}
	}

	summary := &ImportSummary{
		Processed: res.Processed(),
		Emitted:   len(res.Records),
		Folded:    len(folded),
		Filtered:  res.Filtered,
		Rejected:  make([]RejectedRow, 0, len(res.Rejections)),
	}
	for _, rej := range res.Rejections {
		summary.Rejected = append(summary.Rejected, RejectedRow{Row: rej.Row, Reason: rej.Error()})
	}
	for _, op := range ops {
		if op.Insert {
			summary.Inserts++
		} else {
			summary.Updates++
		}
	}
	return summary, nil
}

// Reconcile recomputes the truth view from a fresh extract and
// compares it against everything the store currently holds. Findings
// are data; only configuration or store failures return an error.
func (im *Importer) Reconcile(ctx context.Context, batch []engine.RawRecord) (*engine.Report, error) {
	res, err := engine.NormalizeBatch(im.cfg, batch)
	if err != nil {
		return nil, err
	}
	truth := engine.Fold(im.cfg, res.Records)

	persisted, err := im.store.ExistingRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load persisted snapshot: %w", err)
	}
	return engine.Reconcile(truth, persisted), nil
}
