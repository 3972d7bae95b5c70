package engine

import (
	"strings"
	"testing"
)

const sampleCSV = `id,country,ISO_Code,region,year,conflict_name,type_of_violence,deaths_a,deaths_b,deaths_civilians,deaths_unknown,deaths_total
1,Germany,DEU,Europe,2000,"Berlin, East",state-based,1,2,3,4,10
2,France,FRA,Europe,2001,Paris,non-state,0,0,1,0,1
3,,ESP,Europe,2001,Madrid,non-state,0,0,1,0,1
4,Spain,ESP,Europe,NA,Madrid,non-state,0,0,1,0,1
5,Spain,ESP,Europe,2002,Madrid,non-state,-1,0,1,0,1
6,Spain,ESP,Europe,2002,Madrid,non-state,0,0,1,0
7,1234,NUM,Asia,2003.0,Numeric,one-sided,2.0,0,0,0,2
8,Germany,DEU,Europe,2001,Munich,state-based,0,0,0,0,0
`

func TestLoadColumnar(t *testing.T) {
	store, stats, err := LoadColumnar(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}

	// Rows 3 (empty country), 4 (NA year), 5 (negative), 6 (short) are dropped
	if store.Len() != 4 {
		t.Fatalf("Expected 4 rows, got %d", store.Len())
	}
	if stats.Rows != 4 || stats.Dropped != 4 {
		t.Errorf("Expected stats 4/4, got %d/%d", stats.Rows, stats.Dropped)
	}

	// Row 0 Check
	if store.Years[0] != 2000 {
		t.Errorf("Row 0 Year: Expected 2000, got %d", store.Years[0])
	}
	if store.DeathsTotal[0] != 10 || store.DeathsA[0] != 1 || store.DeathsB[0] != 2 ||
		store.DeathsCivilians[0] != 3 || store.DeathsUnknown[0] != 4 {
		t.Errorf("Row 0 deaths mismatch")
	}
	if got := store.ConflictDict[store.ConflictIDs[0]]; got != "Berlin, East" {
		t.Errorf("Row 0 Conflict: Expected quoted name, got %q", got)
	}

	// Numeric-looking country stays text; integral floats are accepted
	if got := store.CountryDict[store.CountryIDs[2]]; got != "1234" {
		t.Errorf("Row 2 Country: Expected \"1234\", got %q", got)
	}
	if store.Years[2] != 2003 || store.DeathsA[2] != 2 {
		t.Errorf("Row 2 float parsing failed: year=%d a=%d", store.Years[2], store.DeathsA[2])
	}

	// Dictionary Checks
	if len(store.CountryDict) != 3 {
		t.Errorf("Expected 3 unique countries, got %d", len(store.CountryDict))
	}
	if store.CountryIDs[0] != store.CountryIDs[3] {
		t.Errorf("Germany rows should share a dictionary ID")
	}
}

func TestLoadColumnar_MissingColumn(t *testing.T) {
	_, _, err := LoadColumnar(strings.NewReader("country,year\nA,2000\n"))
	if err == nil {
		t.Fatal("Expected error for missing columns")
	}
	if !strings.Contains(err.Error(), "ISO_Code") {
		t.Errorf("Error should name the missing column: %v", err)
	}
}

func TestLoadColumnar_Empty(t *testing.T) {
	if _, _, err := LoadColumnar(strings.NewReader("")); err == nil {
		t.Fatal("Expected error for empty input")
	}

	header := strings.Join(requiredColumns, ",") + "\n"
	store, _, err := LoadColumnar(strings.NewReader(header))
	if err != nil {
		t.Fatal(err)
	}
	if store.Len() != 0 {
		t.Errorf("Expected empty store, got %d rows", store.Len())
	}
}

func TestParseHelpers(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"123", 123, true},
		{" 7 ", 7, true},
		{"12.0", 12, true},
		{"12.5", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseCount(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("parseCount(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}

	for _, v := range []string{"", " ", "NA", "NaN", "null", "None", "#N/A"} {
		if !isMissing(v) {
			t.Errorf("isMissing(%q) = false", v)
		}
	}
	if isMissing("0") || isMissing("Namibia") {
		t.Error("isMissing flagged a real value")
	}
}
