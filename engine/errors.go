/*
errors.go - Centralized error types for the receiving engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers wrap these with additional context.

ERROR CATEGORIES:
  1. Rejections  - per-row identity failures (collected, not fatal)
  2. Configuration errors - fatal, surfaced before any row is touched
  3. Structural errors - input batch is not valid tabular data

Reconciliation findings are NOT errors: the Reconciler reports, it
never throws. See reconcile.go.

USAGE:
  if errors.Is(err, engine.ErrMissingIdentity) {
      // row-level rejection, batch continues
  }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingIdentity is returned when a raw row lacks one of the
	// natural-key fields. This is the only row-level hard failure.
	ErrMissingIdentity = errors.New("missing identity field")

	// ErrEmptyTaxonomy is returned when the order taxonomy table is
	// empty. Classification without a table would silently map every
	// code to UNKNOWN, so this is fatal instead.
	ErrEmptyTaxonomy = errors.New("order taxonomy table is empty")

	// ErrEmptyColumnMapping is returned when no source columns are
	// mapped to canonical fields.
	ErrEmptyColumnMapping = errors.New("column mapping is empty")

	// ErrInvalidAggregationKey is returned for an unrecognized
	// aggregation grouping choice.
	ErrInvalidAggregationKey = errors.New("invalid aggregation key")

	// ErrStructuralInput is returned when the input batch is not a
	// valid tabular shape (e.g. a nil row).
	ErrStructuralInput = errors.New("structural input error")

	// ErrUnfoldedBatch is returned when a planner input still contains
	// duplicate natural keys, i.e. Fold was skipped.
	ErrUnfoldedBatch = errors.New("batch contains duplicate natural keys")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RejectionError describes why a single raw row was rejected.
// Rejections are collected per batch and reported, never fatal.
type RejectionError struct {
	Row   int    // zero-based position in the input batch
	Field string // canonical name of the missing identity field
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("row %d rejected: %s absent", e.Row, e.Field)
}

func (e *RejectionError) Unwrap() error { return ErrMissingIdentity }

// ConfigError wraps a configuration problem with the offending option.
type ConfigError struct {
	Option string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration %q: %v", e.Option, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is fatal configuration trouble.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func errInvalidClass(code string, class OrderClass) error {
	return fmt.Errorf("code %q maps to undefined class %q", code, class)
}
