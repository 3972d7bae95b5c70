package engine

// Filter returns the ascending indices of rows matching both the country and
// the year filter. An unknown country or year yields an empty subset.
func (cs *ColumnStore) Filter(country CountryFilter, year YearFilter) []int32 {
	return cs.Refine(nil, country, year)
}

// Refine narrows rows (nil means every row) by the country and year filters.
func (cs *ColumnStore) Refine(rows []int32, country CountryFilter, year YearFilter) []int32 {
	name, byCountry := country.Name()
	y, byYear := year.Value()

	var cid int32
	if byCountry {
		id, ok := cs.countryID(name)
		if !ok {
			return []int32{}
		}
		cid = id
	}

	match := func(i int32) bool {
		if byCountry && cs.CountryIDs[i] != cid {
			return false
		}
		if byYear && int(cs.Years[i]) != y {
			return false
		}
		return true
	}

	if rows == nil {
		out := make([]int32, 0, cs.Len())
		for i := 0; i < cs.Len(); i++ {
			if match(int32(i)) {
				out = append(out, int32(i))
			}
		}
		return out
	}

	out := make([]int32, 0, len(rows))
	for _, i := range rows {
		if match(i) {
			out = append(out, i)
		}
	}
	return out
}
