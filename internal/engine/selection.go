package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Wire values used by the selection controls.
const (
	AllCountriesLabel = "All Countries"
	AllYearsLabel     = "All Years"
	AllSidesLabel     = "All Sides"
)

// CountryFilter is either All or Exact(name).
type CountryFilter struct {
	name  string
	exact bool
}

// AllCountries matches every row.
func AllCountries() CountryFilter { return CountryFilter{} }

// Country matches rows whose country equals name.
func Country(name string) CountryFilter { return CountryFilter{name: name, exact: true} }

// Name returns the country and true for Exact, "" and false for All.
func (f CountryFilter) Name() (string, bool) { return f.name, f.exact }

// Label is the text shown for the filter in chart titles.
func (f CountryFilter) Label() string {
	if !f.exact {
		return AllCountriesLabel
	}
	return f.name
}

func (f CountryFilter) String() string { return f.Label() }

// YearFilter is either All or Exact(year).
type YearFilter struct {
	year  int
	exact bool
}

// AllYears matches every row.
func AllYears() YearFilter { return YearFilter{} }

// Year matches rows from year y.
func Year(y int) YearFilter { return YearFilter{year: y, exact: true} }

// Value returns the year and true for Exact, 0 and false for All.
func (f YearFilter) Value() (int, bool) { return f.year, f.exact }

func (f YearFilter) Label() string {
	if !f.exact {
		return AllYearsLabel
	}
	return strconv.Itoa(f.year)
}

func (f YearFilter) String() string { return f.Label() }

// DeathMetric selects the column summed by the map view.
type DeathMetric int

const (
	AllSides DeathMetric = iota
	SideA
	SideB
	Unknown
	Civilians
)

var deathMetrics = []struct {
	metric DeathMetric
	value  string
	label  string
}{
	{AllSides, AllSidesLabel, "All Sides"},
	{SideA, "deaths_a", "Deaths Side A"},
	{SideB, "deaths_b", "Deaths Side B"},
	{Unknown, "deaths_unknown", "Deaths Unknown"},
	{Civilians, "deaths_civilians", "Civilians Deaths"},
}

// Value is the wire value of the metric.
func (m DeathMetric) Value() string {
	for _, d := range deathMetrics {
		if d.metric == m {
			return d.value
		}
	}
	return AllSidesLabel
}

// Label is the human readable name of the metric.
func (m DeathMetric) Label() string {
	for _, d := range deathMetrics {
		if d.metric == m {
			return d.label
		}
	}
	return "All Sides"
}

func (m DeathMetric) String() string { return m.Value() }

// Selection is the set of active filter values driving the views.
type Selection struct {
	Country   CountryFilter
	Year      YearFilter
	DeathType DeathMetric
}

// DefaultSelection is the state of freshly opened controls.
func DefaultSelection() Selection {
	return Selection{Country: AllCountries(), Year: AllYears(), DeathType: AllSides}
}

// Key is a stable textual form of the selection, used for memoization.
func (s Selection) Key() string {
	country := "*"
	if name, ok := s.Country.Name(); ok {
		country = "=" + name
	}
	year := "*"
	if y, ok := s.Year.Value(); ok {
		year = strconv.Itoa(y)
	}
	return country + "|" + year + "|" + s.DeathType.Value()
}

// ParseCountry maps a wire value to a CountryFilter. Empty means All.
func ParseCountry(v string) CountryFilter {
	if v == "" || v == AllCountriesLabel {
		return AllCountries()
	}
	return Country(v)
}

// ParseYear maps a wire value to a YearFilter. Empty means All.
func ParseYear(v string) (YearFilter, error) {
	v = strings.TrimSpace(v)
	if v == "" || v == AllYearsLabel {
		return AllYears(), nil
	}
	y, err := strconv.Atoi(v)
	if err != nil {
		return YearFilter{}, fmt.Errorf("invalid year %q", v)
	}
	return Year(y), nil
}

// ParseDeathMetric maps a wire value to a DeathMetric. Empty means AllSides.
func ParseDeathMetric(v string) (DeathMetric, error) {
	if v == "" {
		return AllSides, nil
	}
	for _, d := range deathMetrics {
		if d.value == v {
			return d.metric, nil
		}
	}
	return AllSides, fmt.Errorf("invalid death type %q", v)
}

// DeathMetricOptions lists the metrics in control order.
func DeathMetricOptions() []DeathMetric {
	out := make([]DeathMetric, 0, len(deathMetrics))
	for _, d := range deathMetrics {
		out = append(out, d.metric)
	}
	return out
}
