/*
Package engine provides the core receiving-record processing engine.

PURPOSE:
  This package contains the pure, stateless logic for turning raw
  shipment/receiving extracts into canonical records: fiscal-calendar
  normalization, order-type classification, full-batch aggregation,
  upsert planning, and reconciliation against a persisted view.

KEY CONCEPTS IN THIS FILE (types.go):
  - RawRecord: one source row, a string-keyed map of scalars
  - NormalizedRecord: the canonical entity, one per natural key
  - NaturalKey: the (receipt, order, system) composite identity
  - OrderClass: the classification taxonomy
  - UpsertOp: one insert-or-update operation for the store boundary

DESIGN PRINCIPLES:
  1. Purity: every operation is a function of its explicit inputs
  2. Precision: decimal.Decimal for tolerant numeric coercion
  3. Idempotence: re-running a batch yields byte-identical plans
  4. Degradation: row-level anomalies become documented defaults,
     never errors; only missing identity rejects a row

SEE ALSO:
  - config.go: the immutable configuration value
  - normalize.go: RawRecord -> NormalizedRecord
  - aggregate.go: batch counts and natural-key folding
  - plan.go: UpsertOp emission
  - reconcile.go: truth-vs-persisted comparison
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RAW RECORD - One source row as extracted
// =============================================================================

// RawRecord maps a source column name to an untyped scalar value.
// Values may be string, int, int64, float64, time.Time, or nil.
type RawRecord map[string]any

// =============================================================================
// ORDER CLASS - Classification taxonomy
// =============================================================================

type OrderClass string

const (
	ClassP1      OrderClass = "P1"
	ClassP3      OrderClass = "P3"
	ClassP6      OrderClass = "P6"
	ClassPurge   OrderClass = "PURGE"
	ClassUnknown OrderClass = "UNKNOWN"
)

// Valid reports whether c is one of the defined classes.
func (c OrderClass) Valid() bool {
	switch c {
	case ClassP1, ClassP3, ClassP6, ClassPurge, ClassUnknown:
		return true
	}
	return false
}

// =============================================================================
// NATURAL KEY - Business identity of one logical record
// =============================================================================

// NaturalKey identifies one logical receiving record. Within a folded
// batch there is at most one NormalizedRecord per NaturalKey.
type NaturalKey struct {
	ReceiptID string
	OrderRef  string
	SystemRef string
}

func (k NaturalKey) String() string {
	return k.ReceiptID + "/" + k.OrderRef + "/" + k.SystemRef
}

// =============================================================================
// NORMALIZED RECORD - The canonical entity
// =============================================================================

type NormalizedRecord struct {
	ReceiptID    string
	OrderRef     string
	SystemRef    string
	PartID       string
	RawOrderType string
	OrderClass   OrderClass
	ShipFrom     string
	ShipTo       string
	Country      string
	Quantity     int64
	EventDate    *time.Time

	// Fiscal fields derived from EventDate. All are the "Unknown"
	// sentinel when EventDate is nil.
	FiscalWeek    string
	FiscalYear    string
	FiscalQuarter string
	FiscalMonth   string

	// Batch aggregates, authoritative only after Aggregate/Fold.
	CountReceipt int
	CountOrder   int
}

// Key returns the record's natural key.
func (r NormalizedRecord) Key() NaturalKey {
	return NaturalKey{ReceiptID: r.ReceiptID, OrderRef: r.OrderRef, SystemRef: r.SystemRef}
}

// QuantityDecimal returns the quantity as an exact decimal, used for
// drift totals in reconciliation.
func (r NormalizedRecord) QuantityDecimal() decimal.Decimal {
	return decimal.NewFromInt(r.Quantity)
}

// =============================================================================
// UPSERT OP - Data-plane write operation for the store boundary
// =============================================================================

// UpsertOp is one insert-or-update keyed by NaturalKey. Fields never
// contain the key columns; key columns are write-once at insert.
type UpsertOp struct {
	Key    NaturalKey
	Insert bool // true when Key was absent from the store snapshot
	Fields map[string]any
}

// Canonical column names shared by the planner, the stores, and the
// reconciler. Key columns first.
const (
	ColReceiptID = "receipt_id"
	ColOrderRef  = "order_ref"
	ColSystemRef = "system_ref"

	ColPartID        = "part_id"
	ColRawOrderType  = "raw_order_type"
	ColOrderClass    = "order_class"
	ColShipFrom      = "ship_from"
	ColShipTo        = "ship_to"
	ColCountry       = "country"
	ColQuantity      = "quantity"
	ColEventDate     = "event_date"
	ColFiscalWeek    = "fiscal_week"
	ColFiscalYear    = "fiscal_year"
	ColFiscalQuarter = "fiscal_quarter"
	ColFiscalMonth   = "fiscal_month"
	ColCountReceipt  = "count_receipt"
	ColCountOrder    = "count_order"
)

// NonKeyColumns lists every mutable column in stable order. Stores use
// this to build deterministic upsert statements.
var NonKeyColumns = []string{
	ColPartID,
	ColRawOrderType,
	ColOrderClass,
	ColShipFrom,
	ColShipTo,
	ColCountry,
	ColQuantity,
	ColEventDate,
	ColFiscalWeek,
	ColFiscalYear,
	ColFiscalQuarter,
	ColFiscalMonth,
	ColCountReceipt,
	ColCountOrder,
}
