package engine

// ColumnStore holds conflict events in Struct-of-Arrays format.
// It is built once by LoadColumnar and must not be modified afterwards;
// every query reads it and allocates its own results.
type ColumnStore struct {
	// Data Columns (Flat Arrays)
	Years           []int32
	DeathsTotal     []int64
	DeathsA         []int64
	DeathsB         []int64
	DeathsCivilians []int64
	DeathsUnknown   []int64

	// Dictionary Encoded IDs (0..N), assigned in order of first appearance
	CountryIDs  []int32
	ISOIDs      []int32
	RegionIDs   []int32
	ConflictIDs []int32
	ViolenceIDs []int32

	// Dictionaries (ID -> String)
	CountryDict  []string
	ISODict      []string
	RegionDict   []string
	ConflictDict []string
	ViolenceDict []string
}

// Len returns the number of rows.
func (cs *ColumnStore) Len() int {
	return len(cs.Years)
}

// countryID resolves a country name to its dictionary ID.
func (cs *ColumnStore) countryID(name string) (int32, bool) {
	for id, s := range cs.CountryDict {
		if s == name {
			return int32(id), true
		}
	}
	return 0, false
}

// yearRange returns the smallest and largest year present.
func (cs *ColumnStore) yearRange() (int32, int32) {
	if len(cs.Years) == 0 {
		return 0, -1
	}
	lo, hi := cs.Years[0], cs.Years[0]
	for _, y := range cs.Years[1:] {
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	return lo, hi
}

// metricColumn returns the death column a map query sums.
func (cs *ColumnStore) metricColumn(m DeathMetric) []int64 {
	switch m {
	case SideA:
		return cs.DeathsA
	case SideB:
		return cs.DeathsB
	case Unknown:
		return cs.DeathsUnknown
	case Civilians:
		return cs.DeathsCivilians
	default:
		return cs.DeathsTotal
	}
}
