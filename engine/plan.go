/*
plan.go - Upsert planning

PURPOSE:
  Translates a folded batch into the ordered list of insert-or-update
  operations the store boundary consumes. The planner is pure data
  plane: it knows nothing about SQL dialects, transactions, or
  connections.

GUARANTEES:
  - Exactly one UpsertOp per distinct natural key in the batch.
  - Ops appear in first-occurrence order of their keys, so two runs
    over the same batch emit identical plans (reproducible diffing).
  - Fields never include the key columns; keys are write-once at
    insert, every other column overwrites on conflict.
*/
package engine

import (
	"fmt"
	"time"
)

// Plan emits one UpsertOp per record of a folded batch. existing is
// the store's current key snapshot and only decides the Insert flag.
// A batch still containing duplicate keys means Fold was skipped;
// that is a caller contract violation, reported as ErrUnfoldedBatch.
func Plan(batch []NormalizedRecord, existing map[NaturalKey]bool) ([]UpsertOp, error) {
	seen := make(map[NaturalKey]bool, len(batch))
	ops := make([]UpsertOp, 0, len(batch))

	for _, r := range batch {
		k := r.Key()
		if seen[k] {
			return nil, fmt.Errorf("%w: %s", ErrUnfoldedBatch, k)
		}
		seen[k] = true

		ops = append(ops, UpsertOp{
			Key:    k,
			Insert: !existing[k],
			Fields: fieldsOf(r),
		})
	}
	return ops, nil
}

// fieldsOf builds the mutable column map for one record. Key columns
// are deliberately absent.
func fieldsOf(r NormalizedRecord) map[string]any {
	var eventDate any
	if r.EventDate != nil {
		eventDate = r.EventDate.Format("2006-01-02 15:04:05")
	}
	return map[string]any{
		ColPartID:        r.PartID,
		ColRawOrderType:  r.RawOrderType,
		ColOrderClass:    string(r.OrderClass),
		ColShipFrom:      r.ShipFrom,
		ColShipTo:        r.ShipTo,
		ColCountry:       r.Country,
		ColQuantity:      r.Quantity,
		ColEventDate:     eventDate,
		ColFiscalWeek:    r.FiscalWeek,
		ColFiscalYear:    r.FiscalYear,
		ColFiscalQuarter: r.FiscalQuarter,
		ColFiscalMonth:   r.FiscalMonth,
		ColCountReceipt:  r.CountReceipt,
		ColCountOrder:    r.CountOrder,
	}
}

// RecordFromOp reconstructs a NormalizedRecord from an op. Stores that
// materialize ops back into records (memory store, tests) share this
// instead of re-implementing the column mapping.
func RecordFromOp(op UpsertOp) NormalizedRecord {
	rec := NormalizedRecord{
		ReceiptID:     op.Key.ReceiptID,
		OrderRef:      op.Key.OrderRef,
		SystemRef:     op.Key.SystemRef,
		PartID:        stringField(op.Fields, ColPartID),
		RawOrderType:  stringField(op.Fields, ColRawOrderType),
		OrderClass:    OrderClass(stringField(op.Fields, ColOrderClass)),
		ShipFrom:      stringField(op.Fields, ColShipFrom),
		ShipTo:        stringField(op.Fields, ColShipTo),
		Country:       stringField(op.Fields, ColCountry),
		FiscalWeek:    stringField(op.Fields, ColFiscalWeek),
		FiscalYear:    stringField(op.Fields, ColFiscalYear),
		FiscalQuarter: stringField(op.Fields, ColFiscalQuarter),
		FiscalMonth:   stringField(op.Fields, ColFiscalMonth),
	}
	if v, ok := op.Fields[ColQuantity].(int64); ok {
		rec.Quantity = v
	}
	if v, ok := op.Fields[ColCountReceipt].(int); ok {
		rec.CountReceipt = v
	}
	if v, ok := op.Fields[ColCountOrder].(int); ok {
		rec.CountOrder = v
	}
	if s := stringField(op.Fields, ColEventDate); s != "" {
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC); err == nil {
			rec.EventDate = &t
		}
	}
	return rec
}

func stringField(fields map[string]any, col string) string {
	if s, ok := fields[col].(string); ok {
		return s
	}
	return ""
}
