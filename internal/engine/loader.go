package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Column names of the source table.
const (
	colCountry         = "country"
	colISOCode         = "ISO_Code"
	colRegion          = "region"
	colYear            = "year"
	colConflictName    = "conflict_name"
	colTypeOfViolence  = "type_of_violence"
	colDeathsTotal     = "deaths_total"
	colDeathsA         = "deaths_a"
	colDeathsB         = "deaths_b"
	colDeathsCivilians = "deaths_civilians"
	colDeathsUnknown   = "deaths_unknown"
)

var requiredColumns = []string{
	colCountry, colISOCode, colRegion, colYear, colConflictName, colTypeOfViolence,
	colDeathsTotal, colDeathsA, colDeathsB, colDeathsCivilians, colDeathsUnknown,
}

// missingMarkers are the cell values treated as missing, matching the
// default NA set of common dataframe readers.
var missingMarkers = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"NULL": {}, "null": {}, "None": {}, "<NA>": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {},
	"-1.#IND": {}, "-1.#QNAN": {}, "1.#IND": {}, "1.#QNAN": {},
}

// LoadStats describes one load.
type LoadStats struct {
	Rows    int
	Dropped int
	Elapsed time.Duration
}

// --- 1. PARSE HELPERS ---

func isMissing(s string) bool {
	_, ok := missingMarkers[strings.TrimSpace(s)]
	return ok
}

// parseCount parses "123" or an integral "123.0". Negative values are rejected.
func parseCount(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, n >= 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

// parseYear parses "2021" or "2021.0".
func parseYear(s string) (int32, bool) {
	n, ok := parseCount(s)
	if !ok || n > 1<<31-1 {
		return 0, false
	}
	return int32(n), true
}

// dict assigns IDs to strings in order of first appearance.
type dict struct {
	ids  map[string]int32
	list []string
}

func newDict() *dict {
	return &dict{ids: make(map[string]int32)}
}

func (d *dict) id(s string) int32 {
	if id, ok := d.ids[s]; ok {
		return id
	}
	id := int32(len(d.list))
	d.list = append(d.list, s)
	d.ids[s] = id
	return id
}

// --- 2. MAIN LOADER ---

// LoadColumnar parses a CSV table into a cleaned ColumnStore.
// Rows with a missing, malformed or negative value in any column are dropped.
func LoadColumnar(r io.Reader) (*ColumnStore, LoadStats, error) {
	start := time.Now()
	var stats LoadStats

	reader := csv.NewReader(r)
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	// A. Map required columns to their position in the header
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := pos[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, stats, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	var (
		iCountry   = pos[colCountry]
		iISO       = pos[colISOCode]
		iRegion    = pos[colRegion]
		iYear      = pos[colYear]
		iConflict  = pos[colConflictName]
		iViolence  = pos[colTypeOfViolence]
		iTotal     = pos[colDeathsTotal]
		iA         = pos[colDeathsA]
		iB         = pos[colDeathsB]
		iCivilians = pos[colDeathsCivilians]
		iUnknown   = pos[colDeathsUnknown]
	)

	store := &ColumnStore{}
	countries, isos, regions, conflicts, violence := newDict(), newDict(), newDict(), newDict(), newDict()

	// B. Row loop: validate everything first, then append to every column
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				stats.Dropped++
				continue
			}
			return nil, stats, fmt.Errorf("read row: %w", err)
		}
		if len(rec) != len(header) || rowHasMissing(rec) {
			stats.Dropped++
			continue
		}

		year, ok := parseYear(rec[iYear])
		if !ok {
			stats.Dropped++
			continue
		}
		var deaths [5]int64
		valid := true
		for k, idx := range [5]int{iTotal, iA, iB, iCivilians, iUnknown} {
			if deaths[k], ok = parseCount(rec[idx]); !ok {
				valid = false
				break
			}
		}
		if !valid {
			stats.Dropped++
			continue
		}

		store.Years = append(store.Years, year)
		store.DeathsTotal = append(store.DeathsTotal, deaths[0])
		store.DeathsA = append(store.DeathsA, deaths[1])
		store.DeathsB = append(store.DeathsB, deaths[2])
		store.DeathsCivilians = append(store.DeathsCivilians, deaths[3])
		store.DeathsUnknown = append(store.DeathsUnknown, deaths[4])

		// country is kept as text even when it looks numeric
		store.CountryIDs = append(store.CountryIDs, countries.id(rec[iCountry]))
		store.ISOIDs = append(store.ISOIDs, isos.id(rec[iISO]))
		store.RegionIDs = append(store.RegionIDs, regions.id(rec[iRegion]))
		store.ConflictIDs = append(store.ConflictIDs, conflicts.id(rec[iConflict]))
		store.ViolenceIDs = append(store.ViolenceIDs, violence.id(rec[iViolence]))
	}

	store.CountryDict = countries.list
	store.ISODict = isos.list
	store.RegionDict = regions.list
	store.ConflictDict = conflicts.list
	store.ViolenceDict = violence.list

	stats.Rows = store.Len()
	stats.Elapsed = time.Since(start)
	return store, stats, nil
}

func rowHasMissing(rec []string) bool {
	for _, v := range rec {
		if isMissing(v) {
			return true
		}
	}
	return false
}
