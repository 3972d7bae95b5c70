package dashboard

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"conflictdash/internal/engine"
	"conflictdash/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventsCSV = `country,ISO_Code,region,year,conflict_name,type_of_violence,deaths_a,deaths_b,deaths_civilians,deaths_unknown,deaths_total
Germany,DEU,Europe,2000,Berlin,state-based,1,2,3,4,10
Germany,DEU,Europe,2001,Munich,non-state,0,1,0,0,1
France,FRA,Europe,2000,Paris,one-sided,0,0,5,0,5
Mali,MLI,Africa,2001,Bamako,state-based,2,2,0,1,5
`

func newTestService(t *testing.T) (*Service, *Metrics) {
	t.Helper()
	store, _, err := engine.LoadColumnar(strings.NewReader(eventsCSV))
	require.NoError(t, err)
	m := NewMetrics(prometheus.NewRegistry())
	return NewService(store, 0, 0, m, nil), m
}

func TestParseControls(t *testing.T) {
	got, err := ParseControls("country, death_type")
	require.NoError(t, err)
	assert.Equal(t, []Control{ControlCountry, ControlDeathType}, got)

	got, err = ParseControls("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseControls("country,region")
	assert.Error(t, err)
}

func TestBoard_Affected(t *testing.T) {
	svc, _ := newTestService(t)
	b := svc.Board()

	tests := []struct {
		changed []Control
		want    []PanelID
	}{
		{nil, []PanelID{PanelYearly, PanelTopConflicts, PanelViolence, PanelConflictDeaths, PanelRegions, PanelMap}},
		{[]Control{ControlCountry}, []PanelID{PanelYearly, PanelViolence, PanelConflictDeaths, PanelRegions, PanelMap}},
		{[]Control{ControlYear}, []PanelID{PanelTopConflicts, PanelViolence, PanelConflictDeaths, PanelRegions, PanelMap}},
		{[]Control{ControlDeathType}, []PanelID{PanelMap}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.Affected(tt.changed...), "changed=%v", tt.changed)
	}

	deps, ok := b.Deps(PanelMap)
	require.True(t, ok)
	assert.Equal(t, []Control{ControlCountry, ControlYear, ControlDeathType}, deps)

	_, ok = b.Deps("pie")
	assert.False(t, ok)
}

func TestService_View(t *testing.T) {
	svc, _ := newTestService(t)

	sel := engine.Selection{Country: engine.Country("Germany"), Year: engine.Year(2000), DeathType: engine.AllSides}
	got, err := svc.View(PanelYearly, sel)
	require.NoError(t, err)
	assert.Equal(t, []models.YearCount{{Year: 2000, Count: 1}, {Year: 2001, Count: 1}}, got)

	got, err = svc.View(PanelViolence, sel)
	require.NoError(t, err)
	assert.Equal(t, []models.ViolenceDeaths{{TypeOfViolence: "state-based", DeathsTotal: 10}}, got)

	_, err = svc.View("pie", sel)
	assert.Error(t, err)
}

func TestService_CacheIgnoresUnsubscribedControls(t *testing.T) {
	svc, m := newTestService(t)

	germany := engine.Selection{Country: engine.Country("Germany"), Year: engine.Year(2000), DeathType: engine.AllSides}
	first, err := svc.View(PanelYearly, germany)
	require.NoError(t, err)

	// The yearly panel does not read the year or the death type.
	germany.Year = engine.Year(2001)
	germany.DeathType = engine.SideB
	second, err := svc.View(PanelYearly, germany)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Queries.WithLabelValues("yearly")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues("yearly")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("yearly")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Rows))
}

func TestService_Dashboard(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sel := engine.Selection{Country: engine.AllCountries(), Year: engine.Year(2001), DeathType: engine.SideA}
	updates, err := svc.Dashboard(ctx, sel, ControlDeathType)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, PanelMap, updates[0].Panel)

	cells, ok := updates[0].Data.([]models.CountryDeaths)
	require.True(t, ok)
	byCountry := map[string]int64{}
	for _, c := range cells {
		byCountry[c.Country] = c.Deaths
	}
	assert.Equal(t, int64(2), byCountry["Mali"])
	assert.Equal(t, int64(0), byCountry["Germany"])
	assert.NotContains(t, byCountry, "France")

	updates, err = svc.Dashboard(ctx, sel)
	require.NoError(t, err)
	assert.Len(t, updates, 6)
	for i, p := range svc.Board().Panels() {
		assert.Equal(t, p, updates[i].Panel)
		assert.NotNil(t, updates[i].Data)
	}
}

func TestService_DashboardCancelled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Dashboard(ctx, engine.DefaultSelection())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_Rows(t *testing.T) {
	svc, _ := newTestService(t)

	rows := svc.Rows(engine.Selection{Country: engine.Country("Germany"), Year: engine.AllYears()})
	assert.Equal(t, []int32{0, 1}, rows)

	rows = svc.Rows(engine.Selection{Country: engine.Country("Atlantis"), Year: engine.AllYears()})
	assert.Empty(t, rows)
}

func TestBoard_CacheKey(t *testing.T) {
	svc, _ := newTestService(t)
	b := svc.Board()

	a := engine.Selection{Country: engine.Country("Mali"), Year: engine.Year(2000), DeathType: engine.SideA}
	c := engine.Selection{Country: engine.Country("Mali"), Year: engine.Year(2001), DeathType: engine.SideB}

	assert.Equal(t, b.CacheKey(PanelYearly, a), b.CacheKey(PanelYearly, c))
	assert.NotEqual(t, b.CacheKey(PanelMap, a), b.CacheKey(PanelMap, c))
	assert.Equal(t, "yearly|=Mali|*|All Sides", b.CacheKey(PanelYearly, a))
}

func TestService_UnknownSelectionsShareCacheEntries(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		sel := engine.Selection{
			Country:   engine.Country(fmt.Sprintf("nowhere-%d", i)),
			Year:      engine.Year(1000 + i),
			DeathType: engine.DeathMetricOptions()[i%5],
		}
		updates, err := svc.Dashboard(ctx, sel)
		require.NoError(t, err)
		require.Len(t, updates, 6)
		assert.Equal(t, []models.YearCount{}, updates[0].Data)
	}
	assert.Equal(t, 6, svc.cache.ItemCount())

	// Known values still get their own entries.
	_, err := svc.View(PanelYearly, engine.Selection{Country: engine.Country("Mali"), Year: engine.AllYears()})
	require.NoError(t, err)
	assert.Equal(t, 7, svc.cache.ItemCount())
}
