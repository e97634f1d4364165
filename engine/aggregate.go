/*
aggregate.go - Full-batch aggregation and natural-key folding

PURPOSE:
  Computes the two derived counts over the WHOLE batch in a single
  grouping pass, and folds duplicate natural keys into one logical
  record ahead of upsert planning.

ORDER INVARIANCE:
  Counts come from one map-grouping pass over the full batch. Any
  permutation of the same rows yields the same per-key counts and
  sums. A running "rows seen so far" scan is exactly what this
  replaces: it was O(n^2) and made intermediate counts depend on row
  order.

FOLDING:
  Rows sharing a natural key collapse into one record: quantities sum,
  descriptive fields keep the first non-empty value, counts are the
  group's batch-wide aggregates. Folding is what guarantees the
  planner's at-most-one-op-per-key invariant.
*/
package engine

// orderGroup is the grouping key for the per-order count.
type orderGroup struct {
	ReceiptID string
	Second    string // raw order type or system ref, per configuration
}

func orderGroupOf(cfg Config, r NormalizedRecord) orderGroup {
	if cfg.Aggregation == BySystemRef {
		return orderGroup{ReceiptID: r.ReceiptID, Second: r.SystemRef}
	}
	return orderGroup{ReceiptID: r.ReceiptID, Second: r.RawOrderType}
}

// Aggregate annotates every record with its batch-wide counts without
// changing the batch length. The input slice is not mutated.
func Aggregate(cfg Config, records []NormalizedRecord) []NormalizedRecord {
	receiptCounts := make(map[string]int)
	orderCounts := make(map[orderGroup]int)
	for _, r := range records {
		receiptCounts[r.ReceiptID]++
		orderCounts[orderGroupOf(cfg, r)]++
	}

	out := make([]NormalizedRecord, len(records))
	for i, r := range records {
		r.CountReceipt = receiptCounts[r.ReceiptID]
		r.CountOrder = orderCounts[orderGroupOf(cfg, r)]
		out[i] = r
	}
	return out
}

// Fold collapses duplicate natural keys into one record each,
// preserving first-occurrence order of keys. Quantities sum across the
// group; descriptive fields keep the first non-empty value; counts are
// the batch-wide aggregates computed over the UNFOLDED rows.
func Fold(cfg Config, records []NormalizedRecord) []NormalizedRecord {
	annotated := Aggregate(cfg, records)

	index := make(map[NaturalKey]int, len(annotated))
	var out []NormalizedRecord
	for _, r := range annotated {
		k := r.Key()
		i, seen := index[k]
		if !seen {
			index[k] = len(out)
			out = append(out, r)
			continue
		}
		out[i] = merge(out[i], r)
	}
	return out
}

// merge folds a later duplicate into the accumulated record.
func merge(acc, dup NormalizedRecord) NormalizedRecord {
	acc.Quantity += dup.Quantity

	acc.PartID = firstNonEmpty(acc.PartID, dup.PartID)
	acc.RawOrderType = firstNonEmpty(acc.RawOrderType, dup.RawOrderType)
	acc.ShipFrom = firstNonEmpty(acc.ShipFrom, dup.ShipFrom)
	acc.ShipTo = firstNonEmpty(acc.ShipTo, dup.ShipTo)
	acc.Country = firstNonEmpty(acc.Country, dup.Country)
	if acc.OrderClass == ClassUnknown && dup.OrderClass != ClassUnknown {
		acc.OrderClass = dup.OrderClass
	}
	if acc.EventDate == nil {
		acc.EventDate = dup.EventDate
		acc.FiscalWeek = dup.FiscalWeek
		acc.FiscalYear = dup.FiscalYear
		acc.FiscalQuarter = dup.FiscalQuarter
		acc.FiscalMonth = dup.FiscalMonth
	}
	// Counts are group-level aggregates; both sides carry the same
	// batch-wide values already.
	return acc
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
