package engine

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFiscalStart(t *testing.T) {
	tests := []struct {
		year int
		want time.Time
	}{
		{2023, date(2023, time.February, 4)}, // Feb 1 is a Wednesday
		{2024, date(2024, time.February, 3)}, // Feb 1 is a Thursday
		{2025, date(2025, time.February, 1)}, // Feb 1 is a Saturday
		{2026, date(2026, time.February, 7)}, // Feb 1 is a Sunday
	}
	for _, tt := range tests {
		got := FiscalStart(tt.year)
		if !got.Equal(tt.want) {
			t.Errorf("FiscalStart(%d) = %s, want %s", tt.year, got, tt.want)
		}
		if got.Weekday() != time.Saturday {
			t.Errorf("FiscalStart(%d) falls on %s", tt.year, got.Weekday())
		}
	}
}

func TestWeekAndYear(t *testing.T) {
	tests := []struct {
		name     string
		in       time.Time
		wantWeek string
		wantFY   string
	}{
		{"fiscal year start", date(2024, time.February, 3), "WK01", "FY25"},
		{"day before start anchors to prior year", date(2024, time.February, 1), "WK52", "FY24"},
		{"second week", date(2024, time.February, 10), "WK02", "FY25"},
		{"mid year", date(2024, time.August, 1), "WK26", "FY25"},
		{"feb 1 on saturday is week one", date(2025, time.February, 1), "WK01", "FY26"},
		{"week 53 folds into week 52", date(2026, time.February, 6), "WK52", "FY26"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			week, fy := WeekAndYear(tt.in)
			if week != tt.wantWeek || fy != tt.wantFY {
				t.Errorf("WeekAndYear(%s) = (%s, %s), want (%s, %s)",
					tt.in.Format("2006-01-02"), week, fy, tt.wantWeek, tt.wantFY)
			}
		})
	}
}

func TestQuarter(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{date(2024, time.February, 3), "Q1"},
		{date(2024, time.May, 4), "Q2"},   // day 91 of the fiscal year
		{date(2024, time.May, 3), "Q1"},   // day 90
		{date(2024, time.November, 1), "Q3"},
		{date(2025, time.January, 31), "Q4"},
		{date(2026, time.February, 6), "Q4"}, // beyond day 364, capped
	}
	for _, tt := range tests {
		if got := Quarter(tt.in); got != tt.want {
			t.Errorf("Quarter(%s) = %s, want %s", tt.in.Format("2006-01-02"), got, tt.want)
		}
	}
}

// Every date over a multi-year span must stay inside the defined
// ranges, and derivation must be deterministic.
func TestFiscalDeterminismAndBounds(t *testing.T) {
	d := date(2021, time.January, 1)
	end := date(2027, time.December, 31)
	for d.Before(end) {
		week, fy := WeekAndYear(d)
		quarter := Quarter(d)

		if len(week) != 4 || week < "WK01" || week > "WK52" {
			t.Fatalf("week out of range for %s: %s", d.Format("2006-01-02"), week)
		}
		if quarter < "Q1" || quarter > "Q4" {
			t.Fatalf("quarter out of range for %s: %s", d.Format("2006-01-02"), quarter)
		}
		if len(fy) != 4 || fy[:2] != "FY" {
			t.Fatalf("malformed fiscal year for %s: %s", d.Format("2006-01-02"), fy)
		}

		week2, fy2 := WeekAndYear(d)
		if week2 != week || fy2 != fy || Quarter(d) != quarter {
			t.Fatalf("derivation not deterministic at %s", d.Format("2006-01-02"))
		}
		d = d.AddDate(0, 0, 1)
	}
}

func TestDeriveNilDate(t *testing.T) {
	parts := Derive(nil)
	if parts.Week != Unknown || parts.Year != Unknown || parts.Quarter != Unknown || parts.Month != Unknown {
		t.Errorf("Derive(nil) = %+v, want all %q", parts, Unknown)
	}
}

func TestDeriveMonth(t *testing.T) {
	d := date(2024, time.February, 3)
	parts := Derive(&d)
	if parts.Month != "02" {
		t.Errorf("month = %s, want 02", parts.Month)
	}
	if parts.Week != "WK01" || parts.Year != "FY25" || parts.Quarter != "Q1" {
		t.Errorf("unexpected fiscal parts: %+v", parts)
	}
}
