/*
fiscal.go - Retail fiscal calendar

PURPOSE:
  Maps calendar dates onto the retail fiscal convention where the
  fiscal year begins on the first Saturday on or after February 1.
  The fiscal-year label is the LATER of the two calendar years the
  fiscal year spans: FY24 begins in fiscal-February 2023.

CONVENTIONS:
  - Week:    floor(days since fiscal start / 7) + 1, capped at WK52.
    The cap is deliberate; this is not a 53-week calendar.
  - Quarter: floor(days since fiscal start / 91) + 1, capped at Q4.
  - Month:   calendar month of the date, zero-padded.
  - A nil date yields the "Unknown" sentinel for every field.

Leap years need no special handling: the anchor is always Feb 1 plus
the offset to Saturday, and time.Time arithmetic does the rest.
*/
package engine

import (
	"fmt"
	"time"
)

// Unknown is the sentinel for fiscal fields of a record without a
// parseable event date.
const Unknown = "Unknown"

const (
	maxFiscalWeek    = 52
	maxFiscalQuarter = 4
	daysPerWeek      = 7
	daysPerQuarter   = 91
)

// FiscalStart returns the first Saturday on or after Feb 1 of the
// given calendar year, i.e. the start of that year's fiscal year.
func FiscalStart(year int) time.Time {
	feb1 := time.Date(year, time.February, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Saturday) - int(feb1.Weekday()) + 7) % 7
	return feb1.AddDate(0, 0, offset)
}

// fiscalAnchor returns the fiscal-year start governing t. Dates before
// the current calendar year's fiscal start anchor to the prior year.
func fiscalAnchor(t time.Time) time.Time {
	start := FiscalStart(t.Year())
	if t.Before(start) {
		start = FiscalStart(t.Year() - 1)
	}
	return start
}

// WeekAndYear returns the fiscal week ("WK01".."WK52") and fiscal year
// label ("FYnn") for t.
func WeekAndYear(t time.Time) (week, fiscalYear string) {
	t = dayOf(t)
	start := fiscalAnchor(t)

	w := daysBetween(start, t)/daysPerWeek + 1
	if w > maxFiscalWeek {
		w = maxFiscalWeek
	}
	return fmt.Sprintf("WK%02d", w), fmt.Sprintf("FY%02d", (start.Year()+1)%100)
}

// Quarter returns the fiscal quarter ("Q1".."Q4") for t, derived from
// the same fiscal-year start as WeekAndYear.
func Quarter(t time.Time) string {
	t = dayOf(t)
	start := fiscalAnchor(t)

	q := daysBetween(start, t)/daysPerQuarter + 1
	if q > maxFiscalQuarter {
		q = maxFiscalQuarter
	}
	return fmt.Sprintf("Q%d", q)
}

// FiscalParts bundles the derived fields for one event date.
type FiscalParts struct {
	Week    string
	Year    string
	Quarter string
	Month   string
}

// Derive computes all fiscal fields for an optional event date.
// A nil date yields the Unknown sentinel in every field; no valid
// date ever fails.
func Derive(t *time.Time) FiscalParts {
	if t == nil {
		return FiscalParts{Week: Unknown, Year: Unknown, Quarter: Unknown, Month: Unknown}
	}
	week, year := WeekAndYear(*t)
	return FiscalParts{
		Week:    week,
		Year:    year,
		Quarter: Quarter(*t),
		Month:   fmt.Sprintf("%02d", int(t.Month())),
	}
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
