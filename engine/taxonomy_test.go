package engine

import "testing"

func testTaxonomy() map[string]OrderClass {
	return map[string]OrderClass{
		"BALANCE-IN": ClassP3,
		"REPLEN-IN":  ClassP3,
		"PNAE-IN":    ClassP1,
		"PNAC-IN":    ClassP1,
		"DISPOSE-IN": ClassP6,
		"PURGE-IN":   ClassPurge,
	}
}

func TestClassify(t *testing.T) {
	table := testTaxonomy()

	tests := []struct {
		code string
		want OrderClass
	}{
		{"BALANCE-IN", ClassP3},
		{"REPLEN-IN", ClassP3},
		{"PNAE-IN", ClassP1},
		{"PNAC-IN", ClassP1},
		{"DISPOSE-IN", ClassP6},
		{"PURGE-IN", ClassPurge},
		{"  BALANCE-IN  ", ClassP3}, // whitespace tolerated
		{"SOMETHING-ELSE", ClassUnknown},
		{"", ClassUnknown},
		{"balance-in", ClassUnknown}, // matching is case-sensitive
	}
	for _, tt := range tests {
		if got := Classify(table, tt.code); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

// Classify is total: it never fails, whatever the input.
func TestClassifyEmptyTable(t *testing.T) {
	if got := Classify(nil, "BALANCE-IN"); got != ClassUnknown {
		t.Errorf("Classify with nil table = %s, want %s", got, ClassUnknown)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := testConfig()
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	noTaxonomy := valid
	noTaxonomy.Taxonomy = nil
	if err := noTaxonomy.Validate(); !IsConfigError(err) {
		t.Errorf("empty taxonomy: got %v, want config error", err)
	}

	noMapping := valid
	noMapping.ColumnMapping = nil
	if err := noMapping.Validate(); !IsConfigError(err) {
		t.Errorf("empty column mapping: got %v, want config error", err)
	}

	badKey := valid
	badKey.Aggregation = "by_vibes"
	if err := badKey.Validate(); !IsConfigError(err) {
		t.Errorf("bad aggregation key: got %v, want config error", err)
	}

	badClass := valid
	badClass.Taxonomy = map[string]OrderClass{"BALANCE-IN": "P9"}
	if err := badClass.Validate(); !IsConfigError(err) {
		t.Errorf("undefined class: got %v, want config error", err)
	}
}
