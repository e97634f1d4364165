/*
reconcile.go - Truth vs persisted comparison

PURPOSE:
  Compares two independently obtained views of the same logical
  dataset: a freshly recomputed "truth" batch and the store's
  persisted snapshot. Produces a Report of key-set differences,
  per-field mismatches, and aggregate drift.

DESIGN RULES:
  - Comparison is ALWAYS by natural key, never positional; the two
    views carry no common row order.
  - Values are normalized before comparison (timestamp precision,
    numeric rendering) so pure representation drift never reports as
    a mismatch.
  - Reconciliation never fails on data content. Findings are data;
    only a structurally unreadable input is the caller's error.
*/
package engine

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// FieldMismatch records one differing column for a key present in
// both views. Values are rendered as canonical strings.
type FieldMismatch struct {
	Key       NaturalKey `json:"key"`
	Field     string     `json:"field"`
	Truth     string     `json:"truth"`
	Persisted string     `json:"persisted"`
}

// AggregateDrift compares total quantity across the two views.
type AggregateDrift struct {
	TruthQuantity     decimal.Decimal `json:"total_quantity_truth"`
	PersistedQuantity decimal.Decimal `json:"total_quantity_persisted"`
}

// Drifted reports whether the two totals differ.
func (d AggregateDrift) Drifted() bool {
	return !d.TruthQuantity.Equal(d.PersistedQuantity)
}

// Report is the full reconciliation outcome. Empty difference sets,
// no mismatches, and equal totals mean the views agree.
type Report struct {
	MissingInPersisted []NaturalKey    `json:"missing_in_persisted"`
	ExtraInPersisted   []NaturalKey    `json:"extra_in_persisted"`
	FieldMismatches    []FieldMismatch `json:"field_mismatches"`
	Drift              AggregateDrift  `json:"aggregate_drift"`
}

// Clean reports whether the two views agree completely.
func (r *Report) Clean() bool {
	return len(r.MissingInPersisted) == 0 &&
		len(r.ExtraInPersisted) == 0 &&
		len(r.FieldMismatches) == 0 &&
		!r.Drift.Drifted()
}

// Reconcile compares the truth view against the persisted view.
// Ordering is deterministic: missing keys in truth order, extra keys
// in persisted order, mismatches in truth order then column order.
func Reconcile(truth, persisted []NormalizedRecord) *Report {
	report := &Report{
		MissingInPersisted: []NaturalKey{},
		ExtraInPersisted:   []NaturalKey{},
		FieldMismatches:    []FieldMismatch{},
		Drift: AggregateDrift{
			TruthQuantity:     totalQuantity(truth),
			PersistedQuantity: totalQuantity(persisted),
		},
	}

	persistedByKey := make(map[NaturalKey]NormalizedRecord, len(persisted))
	for _, r := range persisted {
		if _, dup := persistedByKey[r.Key()]; !dup {
			persistedByKey[r.Key()] = r
		}
	}
	truthKeys := make(map[NaturalKey]bool, len(truth))

	for _, t := range truth {
		k := t.Key()
		if truthKeys[k] {
			continue
		}
		truthKeys[k] = true

		p, ok := persistedByKey[k]
		if !ok {
			report.MissingInPersisted = append(report.MissingInPersisted, k)
			continue
		}
		report.FieldMismatches = append(report.FieldMismatches, compareFields(k, t, p)...)
	}

	for _, p := range persisted {
		if !truthKeys[p.Key()] {
			report.ExtraInPersisted = append(report.ExtraInPersisted, p.Key())
			// Avoid reporting a duplicated extra key twice.
			truthKeys[p.Key()] = true
		}
	}

	return report
}

// compareFields diffs every non-key column of two records sharing a
// key, in the stable NonKeyColumns order.
func compareFields(k NaturalKey, truth, persisted NormalizedRecord) []FieldMismatch {
	tf := comparableFields(truth)
	pf := comparableFields(persisted)

	var out []FieldMismatch
	for _, col := range NonKeyColumns {
		if tf[col] != pf[col] {
			out = append(out, FieldMismatch{Key: k, Field: col, Truth: tf[col], Persisted: pf[col]})
		}
	}
	return out
}

// comparableFields renders every non-key column as its canonical
// comparison string. Timestamps truncate to seconds; integers render
// base-10 without sign artifacts. This is what absorbs representation
// drift between freshly computed and round-tripped records.
func comparableFields(r NormalizedRecord) map[string]string {
	eventDate := ""
	if r.EventDate != nil {
		eventDate = r.EventDate.UTC().Truncate(time.Second).Format("2006-01-02 15:04:05")
	}
	return map[string]string{
		ColPartID:        r.PartID,
		ColRawOrderType:  r.RawOrderType,
		ColOrderClass:    string(r.OrderClass),
		ColShipFrom:      r.ShipFrom,
		ColShipTo:        r.ShipTo,
		ColCountry:       r.Country,
		ColQuantity:      strconv.FormatInt(r.Quantity, 10),
		ColEventDate:     eventDate,
		ColFiscalWeek:    r.FiscalWeek,
		ColFiscalYear:    r.FiscalYear,
		ColFiscalQuarter: r.FiscalQuarter,
		ColFiscalMonth:   r.FiscalMonth,
		ColCountReceipt:  strconv.Itoa(r.CountReceipt),
		ColCountOrder:    strconv.Itoa(r.CountOrder),
	}
}

func totalQuantity(records []NormalizedRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.QuantityDecimal())
	}
	return total
}
