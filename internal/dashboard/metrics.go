package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the query-side collectors.
type Metrics struct {
	Queries     *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
	Rows        prometheus.Gauge
}

// NewMetrics registers the collectors on reg. A nil reg yields unregistered
// collectors, which is what tests that build many services want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Queries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conflictdash",
			Name:      "panel_queries_total",
			Help:      "Panel queries served, by panel.",
		}, []string{"panel"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "conflictdash",
			Name:      "panel_compute_seconds",
			Help:      "Time spent computing uncached panel results.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"panel"}),
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conflictdash",
			Name:      "panel_cache_hits_total",
			Help:      "Panel results answered from the memo cache.",
		}, []string{"panel"}),
		CacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conflictdash",
			Name:      "panel_cache_misses_total",
			Help:      "Panel results that had to be computed.",
		}, []string{"panel"}),
		Rows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "conflictdash",
			Name:      "dataset_rows",
			Help:      "Rows held by the loaded event table.",
		}),
	}
}
