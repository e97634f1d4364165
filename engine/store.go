/*
store.go - Persistence boundary for receiving records

PURPOSE:
  Defines the interface between the pure engine and the database.
  The engine only ever sees point-in-time snapshots and emits
  UpsertOp lists; connections, pools, and transactions stay behind
  this boundary.

UPSERT CONTRACT:
  Applying the same op twice is a no-op beyond timestamp bookkeeping:
  insert-or-update-on-conflict keyed by the natural key. Key columns
  are write-once; every other column overwrites. There is no delete
  path; stale keys are only ever detected by reconciliation.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite
  - store/mysql:  MySQL, matching the upstream reporting database
  - engine/store: in-memory for tests and development
*/
package engine

import "context"

// ReceivingStore is the persisted view of normalized records.
type ReceivingStore interface {
	// ExistingKeys returns a point-in-time snapshot of every natural
	// key currently persisted.
	ExistingKeys(ctx context.Context) (map[NaturalKey]bool, error)

	// ExistingRecords returns a point-in-time snapshot of every
	// persisted record, used by reconciliation.
	ExistingRecords(ctx context.Context) ([]NormalizedRecord, error)

	// ApplyOps applies the plan atomically: either every op lands or
	// none do. Re-applying a plan must be idempotent per key.
	ApplyOps(ctx context.Context, ops []UpsertOp) error
}

// TaxonomyStore persists the order-taxonomy table alongside the
// records, mirroring the upstream reporting schema. Optional; the
// engine itself only reads the taxonomy from Config.
type TaxonomyStore interface {
	// SyncTaxonomy upserts the configured classification table.
	SyncTaxonomy(ctx context.Context, table map[string]OrderClass) error
}
