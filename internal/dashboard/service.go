package dashboard

import (
	"context"
	"time"

	"conflictdash/internal/engine"
	"conflictdash/internal/logger"
	"conflictdash/internal/models"

	gocache "github.com/patrickmn/go-cache"
)

// Service answers panel queries against one immutable event table.
// Results are memoised per panel and per the controls the panel reads,
// so changing the year never invalidates the yearly chart.
type Service struct {
	store   *engine.ColumnStore
	board   *Board
	cache   *gocache.Cache
	metrics *Metrics
	log     *logger.Logger
	options models.Options

	countries map[string]struct{}
	years     map[int]struct{}
}

// emptyKey is shared by every selection naming a country or year absent
// from the table; they all produce the same empty result.
const emptyKey = "empty"

// NewService binds the six dashboard panels. ttl <= 0 keeps results until
// the process exits.
func NewService(store *engine.ColumnStore, ttl, cleanup time.Duration, metrics *Metrics, log *logger.Logger) *Service {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if log == nil {
		log = logger.NewNop()
	}
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	s := &Service{
		store:   store,
		board:   NewBoard(),
		cache:   gocache.New(ttl, cleanup),
		metrics: metrics,
		log:     log,
		options: store.Options(),
	}
	metrics.Rows.Set(float64(store.Len()))

	s.countries = make(map[string]struct{}, len(store.CountryDict))
	for _, c := range store.CountryDict {
		s.countries[c] = struct{}{}
	}
	s.years = make(map[int]struct{})
	for _, y := range store.Years {
		s.years[int(y)] = struct{}{}
	}

	s.bind(PanelYearly, []Control{ControlCountry}, func(sel engine.Selection) any {
		return store.YearlyCounts(sel)
	})
	s.bind(PanelTopConflicts, []Control{ControlYear}, func(sel engine.Selection) any {
		return store.TopConflictsByCount(sel)
	})
	s.bind(PanelViolence, []Control{ControlCountry, ControlYear}, func(sel engine.Selection) any {
		return store.DeathsByViolence(sel)
	})
	s.bind(PanelConflictDeaths, []Control{ControlCountry, ControlYear}, func(sel engine.Selection) any {
		return store.TopConflictsByDeaths(sel)
	})
	s.bind(PanelRegions, []Control{ControlCountry, ControlYear}, func(sel engine.Selection) any {
		return store.DeathsByRegion(sel)
	})
	s.bind(PanelMap, []Control{ControlCountry, ControlYear, ControlDeathType}, func(sel engine.Selection) any {
		return store.DeathsByCountry(sel)
	})
	return s
}

// bind registers compute behind the memo cache. The board hands compute a
// selection already reduced to deps, so unread controls never split a key.
func (s *Service) bind(panel PanelID, deps []Control, compute ComputeFunc) {
	label := string(panel)
	s.board.Bind(panel, deps, func(sel engine.Selection) any {
		s.metrics.Queries.WithLabelValues(label).Inc()

		key := label + "|" + s.memoKey(sel)
		if v, ok := s.cache.Get(key); ok {
			s.metrics.CacheHits.WithLabelValues(label).Inc()
			return v
		}
		s.metrics.CacheMisses.WithLabelValues(label).Inc()

		t0 := time.Now()
		v := compute(sel)
		elapsed := time.Since(t0)
		s.metrics.Duration.WithLabelValues(label).Observe(elapsed.Seconds())
		s.log.Debug("panel computed", "panel", label, "selection", sel.Key(), "elapsed", elapsed)

		s.cache.SetDefault(key, v)
		return v
	})
}

// memoKey bounds the key space to the values present in the table.
func (s *Service) memoKey(sel engine.Selection) string {
	if name, ok := sel.Country.Name(); ok {
		if _, known := s.countries[name]; !known {
			return emptyKey
		}
	}
	if y, ok := sel.Year.Value(); ok {
		if _, known := s.years[y]; !known {
			return emptyKey
		}
	}
	return sel.Key()
}

func (s *Service) Store() *engine.ColumnStore { return s.store }

func (s *Service) Board() *Board { return s.board }

// Options returns the control option lists. They are computed once.
func (s *Service) Options() models.Options { return s.options }

// View returns one panel's content. Callers must treat it as read-only;
// the same value is handed to every request that hits the cache.
func (s *Service) View(panel PanelID, sel engine.Selection) (any, error) {
	return s.board.Compute(panel, sel)
}

// Dashboard recomputes the panels subscribed to the changed controls.
func (s *Service) Dashboard(ctx context.Context, sel engine.Selection, changed ...Control) ([]PanelUpdate, error) {
	return s.board.Recompute(ctx, sel, changed...)
}

// Rows returns the filtered row indices for sel, for export.
func (s *Service) Rows(sel engine.Selection) []int32 {
	return s.store.Filter(sel.Country, sel.Year)
}
