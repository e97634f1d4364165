/*
Package receiving wires the pure engine to a store: default
configuration tables, the Importer that runs a full
normalize -> aggregate -> plan -> apply pass, and reconciliation runs.

The defaults here mirror the upstream reporting deployment. They are a
starting point, not a hidden fallback: deployments override the whole
configuration through a config file, and an empty table is rejected by
engine.Config.Validate, never silently defaulted.
*/
package receiving

import "github.com/warp/receiving-engine/engine"

// DefaultColumnMapping renames the extract's headers to canonical
// column names.
func DefaultColumnMapping() map[string]string {
	return map[string]string{
		"ReceiptNo":             engine.ColReceiptID,
		"Replen/Balance Order#": engine.ColOrderRef,
		"Cust Sys No":           engine.ColSystemRef,
		"Allocated Part#":       engine.ColPartID,
		"EDI Order Type":        engine.ColRawOrderType,
		"ShipFromCode":          engine.ColShipFrom,
		"ShipToCode":            engine.ColShipTo,
		"Country":               engine.ColCountry,
		"Quantity":              engine.ColQuantity,
		"PutAwayDate":           engine.ColEventDate,
		"Count RC":              engine.ColCountReceipt,
		"Count PO":              engine.ColCountOrder,
	}
}

// DefaultTaxonomy maps the known order-type codes. PURGE-IN maps to
// PURGE here; any code outside the table classifies UNKNOWN.
func DefaultTaxonomy() map[string]engine.OrderClass {
	return map[string]engine.OrderClass{
		"BALANCE-IN": engine.ClassP3,
		"REPLEN-IN":  engine.ClassP3,
		"PNAE-IN":    engine.ClassP1,
		"PNAC-IN":    engine.ClassP1,
		"DISPOSE-IN": engine.ClassP6,
		"PURGE-IN":   engine.ClassPurge,
	}
}

// DefaultConfig is the shipped deployment configuration.
func DefaultConfig() engine.Config {
	return engine.Config{
		ColumnMapping: DefaultColumnMapping(),
		Taxonomy:      DefaultTaxonomy(),
		TargetCountry: "KR",
		Aggregation:   engine.ByOrderType,
	}
}
