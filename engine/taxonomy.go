/*
taxonomy.go - Order-type classification

PURPOSE:
  Classifies raw order-type codes into the OrderClass taxonomy using
  the configured table. The table is data, not logic: deployments
  override it wholesale through Config, and the engine never hard-codes
  a mapping at a call site.

TOTALITY:
  Classify is total. Any code absent from the table, including the
  empty string, classifies as UNKNOWN. It never fails.
*/
package engine

import "strings"

// Classify maps a raw order-type code to its OrderClass under the
// given table. Matching is exact after trimming surrounding
// whitespace; unmapped codes return ClassUnknown.
func Classify(table map[string]OrderClass, rawCode string) OrderClass {
	if class, ok := table[strings.TrimSpace(rawCode)]; ok {
		return class
	}
	return ClassUnknown
}
