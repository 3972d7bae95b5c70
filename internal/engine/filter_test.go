package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	store := fixtureStore()

	tests := []struct {
		name    string
		country CountryFilter
		year    YearFilter
		want    []int32
	}{
		{"no filter", AllCountries(), AllYears(), []int32{0, 1, 2, 3, 4, 5}},
		{"country", Country("A"), AllYears(), []int32{0, 1, 2}},
		{"year", AllCountries(), Year(2000), []int32{0, 1, 3}},
		{"both", Country("B"), Year(2001), []int32{4}},
		{"unknown country", Country("Nowhere"), AllYears(), []int32{}},
		{"unknown year", AllCountries(), Year(1900), []int32{}},
		{"disjoint", Country("C"), Year(2000), []int32{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.Filter(tt.country, tt.year))
		})
	}
}

func TestFilter_Composition(t *testing.T) {
	store := fixtureStore()
	countries := []CountryFilter{AllCountries(), Country("A"), Country("B"), Country("C"), Country("Nowhere")}
	years := []YearFilter{AllYears(), Year(2000), Year(2001), Year(2002), Year(1999)}

	for _, c := range countries {
		for _, y := range years {
			both := store.Filter(c, y)
			countryThenYear := store.Refine(store.Filter(c, AllYears()), AllCountries(), y)
			yearThenCountry := store.Refine(store.Filter(AllCountries(), y), c, AllYears())

			assert.Equal(t, both, countryThenYear, "%s/%s", c, y)
			assert.Equal(t, both, yearThenCountry, "%s/%s", c, y)
		}
	}
}

func TestSelectionParsing(t *testing.T) {
	assert.Equal(t, AllCountries(), ParseCountry(""))
	assert.Equal(t, AllCountries(), ParseCountry(AllCountriesLabel))
	assert.Equal(t, Country("Syria"), ParseCountry("Syria"))

	y, err := ParseYear("All Years")
	assert.NoError(t, err)
	assert.Equal(t, AllYears(), y)

	y, err = ParseYear("2014")
	assert.NoError(t, err)
	v, ok := y.Value()
	assert.True(t, ok)
	assert.Equal(t, 2014, v)

	_, err = ParseYear("twenty")
	assert.Error(t, err)

	for _, m := range DeathMetricOptions() {
		got, err := ParseDeathMetric(m.Value())
		assert.NoError(t, err)
		assert.Equal(t, m, got)
	}
	m, err := ParseDeathMetric("")
	assert.NoError(t, err)
	assert.Equal(t, AllSides, m)
	_, err = ParseDeathMetric("deaths_everyone")
	assert.Error(t, err)
}

func TestSelectionKey(t *testing.T) {
	a := Selection{Country: Country("All"), Year: AllYears()}
	b := Selection{Country: AllCountries(), Year: AllYears()}
	assert.NotEqual(t, a.Key(), b.Key())

	assert.Equal(t, "*|*|All Sides", DefaultSelection().Key())
	assert.Equal(t, "=A|2000|deaths_b", Selection{Country: Country("A"), Year: Year(2000), DeathType: SideB}.Key())
	assert.Equal(t, "All Countries", AllCountries().Label())
	assert.Equal(t, "1999", Year(1999).Label())
}
