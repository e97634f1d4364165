/*
normalize.go - RawRecord to NormalizedRecord

PURPOSE:
  Turns one raw extract row into the canonical record: column
  rename/select, country filter, tolerant type coercion, natural-key
  cleanup, fiscal derivation, classification, and a terminal
  missing-value fill.

DEGRADATION POLICY:
  Every row-level anomaly resolves to a documented default:
    bad date        -> nil event date, "Unknown" fiscal fields
    bad quantity    -> 0
    unmapped code   -> UNKNOWN class
    other country   -> row not emitted (counted, not an error)
  The single hard failure is a missing identity field, reported as a
  RejectionError and collected per batch.

IDEMPOTENCE:
  Each step is independently idempotent; normalizing an already
  normalized value is a no-op. Re-running a batch yields identical
  output.
*/
package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BatchResult accounts for every row of the input batch: emitted,
// rejected, or filtered. Nothing is dropped silently.
type BatchResult struct {
	Records    []NormalizedRecord
	Rejections []*RejectionError
	Filtered   int // rows excluded by the country filter
}

// Processed returns the number of input rows the batch consumed.
func (b *BatchResult) Processed() int {
	return len(b.Records) + len(b.Rejections) + b.Filtered
}

// NormalizeBatch normalizes every row of the batch. Row-level
// rejections are collected in the result; only configuration or
// structural problems return an error.
func NormalizeBatch(cfg Config, batch []RawRecord) (*BatchResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	out := &BatchResult{}
	for i, raw := range batch {
		if raw == nil {
			return nil, fmt.Errorf("%w: row %d is nil", ErrStructuralInput, i)
		}
		rec, kept, err := Normalize(cfg, raw)
		if err != nil {
			var rej *RejectionError
			if errors.As(err, &rej) {
				rej.Row = i
				out.Rejections = append(out.Rejections, rej)
				continue
			}
			return nil, err
		}
		if !kept {
			out.Filtered++
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

// Normalize converts one raw row. The boolean is false when the row is
// excluded by the country filter. The only error is a RejectionError
// for a missing identity field.
func Normalize(cfg Config, raw RawRecord) (NormalizedRecord, bool, error) {
	// Step 1: rename/select known columns; everything else drops.
	row := make(map[string]any, len(cfg.ColumnMapping))
	for src, canonical := range cfg.ColumnMapping {
		if v, ok := raw[src]; ok && v != nil {
			row[canonical] = v
		}
	}

	// Identity: the single hard failure condition.
	for _, col := range []string{ColReceiptID, ColOrderRef, ColSystemRef} {
		if _, ok := row[col]; !ok {
			return NormalizedRecord{}, false, &RejectionError{Field: col}
		}
	}

	// Step 2: country filter. Rows without a country column are kept.
	if cfg.TargetCountry != "" {
		if v, ok := row[ColCountry]; ok {
			if coerceString(v) != cfg.TargetCountry {
				return NormalizedRecord{}, false, nil
			}
		}
	}

	// Steps 3-4: coercion and natural-key cleanup.
	rec := NormalizedRecord{
		ReceiptID:    coerceString(row[ColReceiptID]),
		OrderRef:     stripFractionSuffix(coerceString(row[ColOrderRef])),
		SystemRef:    coerceString(row[ColSystemRef]),
		PartID:       coerceString(row[ColPartID]),
		RawOrderType: coerceString(row[ColRawOrderType]),
		ShipFrom:     coerceString(row[ColShipFrom]),
		ShipTo:       coerceString(row[ColShipTo]),
		Country:      coerceString(row[ColCountry]),
		Quantity:     coerceQuantity(row[ColQuantity]),
		EventDate:    coerceDate(row[ColEventDate]),
	}

	// Step 5: fiscal derivation.
	fiscal := Derive(rec.EventDate)
	rec.FiscalWeek = fiscal.Week
	rec.FiscalYear = fiscal.Year
	rec.FiscalQuarter = fiscal.Quarter
	rec.FiscalMonth = fiscal.Month

	// Step 6: classification.
	rec.OrderClass = Classify(cfg.Taxonomy, rec.RawOrderType)

	// Source extracts sometimes carry their own count columns; coerce
	// them like any numeric, but the batch aggregation overwrites both.
	rec.CountReceipt = int(coerceQuantity(row[ColCountReceipt]))
	rec.CountOrder = int(coerceQuantity(row[ColCountOrder]))

	// Step 7 (missing-value fill) is structural: string fields of the
	// zero record are already "", numerics already 0.
	return rec, true, nil
}

// =============================================================================
// COERCION HELPERS
// =============================================================================

// coerceString renders any scalar as its canonical string. Numeric
// values lose floating-point artifacts ("100.0" stays a float64 100 in
// JSON decoding and must render as "100").
func coerceString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return decimal.NewFromFloat(x).String()
	case float32:
		return decimal.NewFromFloat32(x).String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// coerceQuantity parses a scalar into a non-negative integer quantity.
// Non-numeric, missing, and negative inputs yield 0.
func coerceQuantity(v any) int64 {
	var d decimal.Decimal
	switch x := v.(type) {
	case nil:
		return 0
	case int:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case float64:
		d = decimal.NewFromFloat(x)
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return 0
		}
		d = parsed
	default:
		return 0
	}
	if d.IsNegative() {
		return 0
	}
	return d.IntPart()
}

// dateLayouts are tried in order by coerceDate. The first two match
// the extract's native format; the rest cover re-exported data.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
	"2006-01-02",
	"01/02/2006",
	time.RFC3339,
}

// coerceDate parses a scalar into an optional timestamp. Unparseable
// input yields nil, never an error.
func coerceDate(v any) *time.Time {
	switch x := v.(type) {
	case time.Time:
		u := x.UTC()
		return &u
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return &t
			}
		}
		return nil
	default:
		return nil
	}
}

// stripFractionSuffix removes a trailing ".0"-style artifact from
// numeric-looking identifiers ("123.0" -> "123"). Anything else passes
// through untouched, including leading zeros.
func stripFractionSuffix(s string) string {
	dot := strings.IndexByte(s, '.')
	if dot <= 0 || dot == len(s)-1 {
		return s
	}
	for _, r := range s[:dot] {
		if r < '0' || r > '9' {
			return s
		}
	}
	for _, r := range s[dot+1:] {
		if r != '0' {
			return s
		}
	}
	return s[:dot]
}
