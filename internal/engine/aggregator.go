package engine

import (
	"conflictdash/internal/models"
	"runtime"
	"sort"
	"sync"
)

const (
	TopConflictsLimit = 15
	TopDeathsLimit    = 20

	// Below this many rows a single worker is faster than fanning out.
	minParallelRows = 1 << 14
)

// --- 1. PARALLEL FOLD ---

// fold splits rows into one chunk per worker, lets each worker fill its own
// partial, then merges the partials in worker order.
func fold[P any](rows []int32, newPartial func() P, step func(p P, row int32), merge func(dst, src P)) P {
	numWorkers := runtime.NumCPU()
	if len(rows) < minParallelRows || numWorkers < 2 {
		p := newPartial()
		for _, r := range rows {
			step(p, r)
		}
		return p
	}

	chunkSize := (len(rows) + numWorkers - 1) / numWorkers
	partials := make([]P, numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		if start >= end {
			partials[i] = newPartial()
			continue
		}

		wg.Add(1)
		go func(idx int, chunk []int32) {
			defer wg.Done()
			p := newPartial()
			for _, r := range chunk {
				step(p, r)
			}
			partials[idx] = p
		}(i, rows[start:end])
	}
	wg.Wait()

	out := partials[0]
	for _, p := range partials[1:] {
		merge(out, p)
	}
	return out
}

// groupAcc accumulates per-dictionary-ID counts and sums.
type groupAcc struct {
	count []int64
	sum   []int64
	first []int32 // smallest row index seen, -1 when the group is absent
}

func newGroupAcc(n int) *groupAcc {
	g := &groupAcc{
		count: make([]int64, n),
		sum:   make([]int64, n),
		first: make([]int32, n),
	}
	for i := range g.first {
		g.first[i] = -1
	}
	return g
}

func (g *groupAcc) merge(o *groupAcc) {
	for i := range g.count {
		if o.count[i] == 0 {
			continue
		}
		g.count[i] += o.count[i]
		g.sum[i] += o.sum[i]
		if g.first[i] < 0 || o.first[i] < g.first[i] {
			g.first[i] = o.first[i]
		}
	}
}

// groupBy folds rows by ids, summing values (nil values only counts).
func groupBy(rows []int32, ids []int32, numGroups int, values []int64) *groupAcc {
	return fold(rows,
		func() *groupAcc { return newGroupAcc(numGroups) },
		func(g *groupAcc, r int32) {
			id := ids[r]
			g.count[id]++
			if values != nil {
				g.sum[id] += values[r]
			}
			if g.first[id] < 0 {
				g.first[id] = r
			}
		},
		(*groupAcc).merge,
	)
}

// --- 2. QUERIES ---

// YearlyCounts counts rows per year for the selected country, ascending by year.
func (cs *ColumnStore) YearlyCounts(sel Selection) []models.YearCount {
	rows := cs.Filter(sel.Country, AllYears())
	out := make([]models.YearCount, 0)
	if len(rows) == 0 {
		return out
	}

	// Array indexed by year - base instead of a map, unless outlier years
	// would make the array far larger than the subset itself
	lo, hi := cs.yearRange()
	span := int64(hi) - int64(lo) + 1
	if span > int64(4*len(rows)+1024) {
		return cs.sparseYearlyCounts(rows)
	}
	counts := fold(rows,
		func() *[]int64 { s := make([]int64, span); return &s },
		func(p *[]int64, r int32) { (*p)[cs.Years[r]-lo]++ },
		func(dst, src *[]int64) {
			for i, v := range *src {
				(*dst)[i] += v
			}
		},
	)

	for i, c := range *counts {
		if c > 0 {
			out = append(out, models.YearCount{Year: int(lo) + i, Count: c})
		}
	}
	return out
}

// sparseYearlyCounts is YearlyCounts for tables whose years are spread too
// thin for a dense counter.
func (cs *ColumnStore) sparseYearlyCounts(rows []int32) []models.YearCount {
	counts := fold(rows,
		func() map[int32]int64 { return make(map[int32]int64) },
		func(p map[int32]int64, r int32) { p[cs.Years[r]]++ },
		func(dst, src map[int32]int64) {
			for y, c := range src {
				dst[y] += c
			}
		},
	)

	out := make([]models.YearCount, 0, len(counts))
	for y, c := range counts {
		out = append(out, models.YearCount{Year: int(y), Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// TopConflictsByCount returns the conflicts with the most rows in the selected
// year. Ties keep the order in which the conflicts first appear.
func (cs *ColumnStore) TopConflictsByCount(sel Selection) []models.ConflictCount {
	rows := cs.Filter(AllCountries(), sel.Year)
	acc := groupBy(rows, cs.ConflictIDs, len(cs.ConflictDict), nil)

	ids := presentIDs(acc)
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if acc.count[a] != acc.count[b] {
			return acc.count[a] > acc.count[b]
		}
		return acc.first[a] < acc.first[b]
	})
	if len(ids) > TopConflictsLimit {
		ids = ids[:TopConflictsLimit]
	}

	out := make([]models.ConflictCount, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.ConflictCount{ConflictName: cs.ConflictDict[id], Count: acc.count[id]})
	}
	return out
}

// DeathsByViolence sums deaths_total per type of violence, ordered by type.
func (cs *ColumnStore) DeathsByViolence(sel Selection) []models.ViolenceDeaths {
	rows := cs.Filter(sel.Country, sel.Year)
	acc := groupBy(rows, cs.ViolenceIDs, len(cs.ViolenceDict), cs.DeathsTotal)

	out := make([]models.ViolenceDeaths, 0)
	for _, id := range presentIDs(acc) {
		out = append(out, models.ViolenceDeaths{TypeOfViolence: cs.ViolenceDict[id], DeathsTotal: acc.sum[id]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeOfViolence < out[j].TypeOfViolence })
	return out
}

// TopConflictsByDeaths returns the conflicts with the highest summed
// deaths_total. Ties are ordered by conflict name.
func (cs *ColumnStore) TopConflictsByDeaths(sel Selection) []models.ConflictDeaths {
	rows := cs.Filter(sel.Country, sel.Year)
	acc := groupBy(rows, cs.ConflictIDs, len(cs.ConflictDict), cs.DeathsTotal)

	out := make([]models.ConflictDeaths, 0)
	for _, id := range presentIDs(acc) {
		out = append(out, models.ConflictDeaths{ConflictName: cs.ConflictDict[id], DeathsTotal: acc.sum[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DeathsTotal != out[j].DeathsTotal {
			return out[i].DeathsTotal > out[j].DeathsTotal
		}
		return out[i].ConflictName < out[j].ConflictName
	})
	if len(out) > TopDeathsLimit {
		out = out[:TopDeathsLimit]
	}
	return out
}

type regionAcc struct {
	present   []bool
	unknown   []int64
	sideA     []int64
	sideB     []int64
	civilians []int64
}

// DeathsByRegion sums the four per-side death columns per region, ordered by region.
func (cs *ColumnStore) DeathsByRegion(sel Selection) []models.RegionDeaths {
	rows := cs.Filter(sel.Country, sel.Year)
	n := len(cs.RegionDict)

	acc := fold(rows,
		func() *regionAcc {
			return &regionAcc{
				present:   make([]bool, n),
				unknown:   make([]int64, n),
				sideA:     make([]int64, n),
				sideB:     make([]int64, n),
				civilians: make([]int64, n),
			}
		},
		func(p *regionAcc, r int32) {
			id := cs.RegionIDs[r]
			p.present[id] = true
			p.unknown[id] += cs.DeathsUnknown[r]
			p.sideA[id] += cs.DeathsA[r]
			p.sideB[id] += cs.DeathsB[r]
			p.civilians[id] += cs.DeathsCivilians[r]
		},
		func(dst, src *regionAcc) {
			for i := 0; i < n; i++ {
				if !src.present[i] {
					continue
				}
				dst.present[i] = true
				dst.unknown[i] += src.unknown[i]
				dst.sideA[i] += src.sideA[i]
				dst.sideB[i] += src.sideB[i]
				dst.civilians[i] += src.civilians[i]
			}
		},
	)

	out := make([]models.RegionDeaths, 0)
	for id, ok := range acc.present {
		if !ok {
			continue
		}
		out = append(out, models.RegionDeaths{
			Region:          cs.RegionDict[id],
			DeathsUnknown:   acc.unknown[id],
			DeathsA:         acc.sideA[id],
			DeathsB:         acc.sideB[id],
			DeathsCivilians: acc.civilians[id],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

type cellStats struct {
	Deaths int64
	Rows   int
}

// DeathsByCountry sums the selected death metric per (country, ISO_Code)
// pair, ordered by country then ISO code.
func (cs *ColumnStore) DeathsByCountry(sel Selection) []models.CountryDeaths {
	rows := cs.Filter(sel.Country, sel.Year)
	metric := cs.metricColumn(sel.DeathType)

	// Flattened [Country][ISO] -> [Country * NumISO + ISO]
	numISO := len(cs.ISODict)
	matrixSize := len(cs.CountryDict) * numISO

	matrix := fold(rows,
		func() *[]cellStats { m := make([]cellStats, matrixSize); return &m },
		func(p *[]cellStats, r int32) {
			idx := int(cs.CountryIDs[r])*numISO + int(cs.ISOIDs[r])
			(*p)[idx].Deaths += metric[r]
			(*p)[idx].Rows++
		},
		func(dst, src *[]cellStats) {
			for i, c := range *src {
				if c.Rows > 0 {
					(*dst)[i].Deaths += c.Deaths
					(*dst)[i].Rows += c.Rows
				}
			}
		},
	)

	out := make([]models.CountryDeaths, 0)
	for i, c := range *matrix {
		if c.Rows == 0 {
			continue
		}
		out = append(out, models.CountryDeaths{
			Country: cs.CountryDict[i/numISO],
			ISOCode: cs.ISODict[i%numISO],
			Deaths:  c.Deaths,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Country != out[j].Country {
			return out[i].Country < out[j].Country
		}
		return out[i].ISOCode < out[j].ISOCode
	})
	return out
}

// Aggregate computes every view for one selection.
func (cs *ColumnStore) Aggregate(sel Selection) *models.DashboardData {
	return &models.DashboardData{
		YearlyCounts:   cs.YearlyCounts(sel),
		TopConflicts:   cs.TopConflictsByCount(sel),
		ViolenceDeaths: cs.DeathsByViolence(sel),
		ConflictDeaths: cs.TopConflictsByDeaths(sel),
		RegionDeaths:   cs.DeathsByRegion(sel),
		CountryDeaths:  cs.DeathsByCountry(sel),
	}
}

// Options lists the control values: countries in order of first appearance,
// years ascending, and the death metrics.
func (cs *ColumnStore) Options() models.Options {
	opts := models.Options{
		Countries: append([]string{AllCountriesLabel}, cs.CountryDict...),
		Years:     []models.YearOption{{Label: AllYearsLabel, Value: AllYearsLabel}},
	}

	seen := make(map[int32]struct{})
	years := make([]int, 0)
	for _, y := range cs.Years {
		if _, ok := seen[y]; !ok {
			seen[y] = struct{}{}
			years = append(years, int(y))
		}
	}
	sort.Ints(years)
	for _, y := range years {
		opts.Years = append(opts.Years, models.YearOption{Label: Year(y).Label(), Value: y})
	}

	for _, m := range DeathMetricOptions() {
		opts.DeathTypes = append(opts.DeathTypes, models.OptionLabel{Label: m.Label(), Value: m.Value()})
	}
	return opts
}

// presentIDs lists the group IDs that received at least one row.
func presentIDs(acc *groupAcc) []int32 {
	ids := make([]int32, 0)
	for id, c := range acc.count {
		if c > 0 {
			ids = append(ids, int32(id))
		}
	}
	return ids
}
