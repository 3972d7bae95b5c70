package models

// DashboardData bundles the six views for one selection.
type DashboardData struct {
	YearlyCounts   []YearCount      `json:"yearly_counts"`
	TopConflicts   []ConflictCount  `json:"top_conflicts"`
	ViolenceDeaths []ViolenceDeaths `json:"violence_deaths"`
	ConflictDeaths []ConflictDeaths `json:"conflict_deaths"`
	RegionDeaths   []RegionDeaths   `json:"region_deaths"`
	CountryDeaths  []CountryDeaths  `json:"country_deaths"`
}

type YearCount struct {
	Year  int   `json:"year"`
	Count int64 `json:"count"`
}

type ConflictCount struct {
	ConflictName string `json:"conflict_name"`
	Count        int64  `json:"count"`
}

type ViolenceDeaths struct {
	TypeOfViolence string `json:"type_of_violence"`
	DeathsTotal    int64  `json:"deaths_total"`
}

type ConflictDeaths struct {
	ConflictName string `json:"conflict_name"`
	DeathsTotal  int64  `json:"deaths_total"`
}

// RegionDeaths holds the four per-side death sums of one region.
type RegionDeaths struct {
	Region          string `json:"region"`
	DeathsUnknown   int64  `json:"deaths_unknown"`
	DeathsA         int64  `json:"deaths_a"`
	DeathsB         int64  `json:"deaths_b"`
	DeathsCivilians int64  `json:"deaths_civilians"`
}

// CountryDeaths is one map cell; Deaths holds whichever metric was selected.
type CountryDeaths struct {
	Country string `json:"country"`
	ISOCode string `json:"ISO_Code"`
	Deaths  int64  `json:"deaths"`
}

// Options lists the values the selection controls may take.
type Options struct {
	Countries  []string      `json:"countries"`
	Years      []YearOption  `json:"years"`
	DeathTypes []OptionLabel `json:"death_types"`
}

// YearOption is either the "All Years" sentinel or a concrete year.
type YearOption struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

type OptionLabel struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
