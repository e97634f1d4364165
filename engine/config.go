/*
config.go - Immutable configuration value for the engine

PURPOSE:
  Everything that was once a module-level table in the source scripts
  (column mapping, order taxonomy, target country) travels here as an
  explicit value passed into every call. There are no package globals
  and no silent defaults: an empty taxonomy or mapping is fatal.

SEE ALSO:
  - receiving/defaults.go: the shipped default tables
  - normalize.go, aggregate.go: consumers of this value
*/
package engine

// AggregationKey selects the grouping used for the per-order count.
// The choice is a deployment decision; it must be fixed per store, not
// ad hoc per run.
type AggregationKey string

const (
	// ByOrderType groups on (receipt, raw order type).
	ByOrderType AggregationKey = "by_order_type"
	// BySystemRef groups on (receipt, system reference).
	BySystemRef AggregationKey = "by_system_ref"
)

// Config carries the validated tables the engine operates with.
// Treat as immutable once constructed.
type Config struct {
	// ColumnMapping renames source column headers to canonical column
	// names (see the Col* constants). Unmapped source columns are
	// dropped silently.
	ColumnMapping map[string]string `json:"column_mapping"`

	// Taxonomy maps raw order-type codes to an OrderClass. Codes
	// absent from the table classify as UNKNOWN.
	Taxonomy map[string]OrderClass `json:"order_taxonomy"`

	// TargetCountry filters the batch: rows whose country column is
	// present and differs are not emitted. Rows without a country
	// column are retained. Empty string disables the filter.
	TargetCountry string `json:"target_country"`

	// Aggregation selects the per-order count grouping.
	Aggregation AggregationKey `json:"aggregation_key"`
}

// Validate checks the configuration before any row is processed.
// Problems here are fatal to the whole batch.
func (c Config) Validate() error {
	if len(c.ColumnMapping) == 0 {
		return &ConfigError{Option: "column_mapping", Err: ErrEmptyColumnMapping}
	}
	if len(c.Taxonomy) == 0 {
		return &ConfigError{Option: "order_taxonomy", Err: ErrEmptyTaxonomy}
	}
	for code, class := range c.Taxonomy {
		if !class.Valid() {
			return &ConfigError{Option: "order_taxonomy", Err: errInvalidClass(code, class)}
		}
	}
	switch c.Aggregation {
	case ByOrderType, BySystemRef:
	default:
		return &ConfigError{Option: "aggregation_key", Err: ErrInvalidAggregationKey}
	}
	return nil
}
