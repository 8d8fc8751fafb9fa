package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for entity caches.
type Metrics struct {
	HitsTotal   *prometheus.CounterVec
	MissesTotal *prometheus.CounterVec
	SetsTotal   *prometheus.CounterVec
	ClearsTotal *prometheus.CounterVec
	Size        *prometheus.GaugeVec
}

// NewMetrics returns the process-wide cache metrics, registering them with
// the default registry on first use.
//
// Metrics:
//   - streamline_cache_hits_total{kind}
//   - streamline_cache_misses_total{kind}
//   - streamline_cache_sets_total{kind}
//   - streamline_cache_clears_total{kind}
//   - streamline_cache_size{kind}
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = newMetrics(promauto.With(prometheus.DefaultRegisterer))
	})
	return globalMetrics
}

// NewMetricsWithRegistry registers a fresh set of metrics on reg.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(promauto.With(reg))
}

func newMetrics(f promauto.Factory) *Metrics {
	labels := []string{"kind"} // "project" or "task"
	return &Metrics{
		HitsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "streamline_cache_hits_total",
			Help: "Total number of entity cache hits",
		}, labels),
		MissesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "streamline_cache_misses_total",
			Help: "Total number of entity cache misses",
		}, labels),
		SetsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "streamline_cache_sets_total",
			Help: "Total number of entity cache writes",
		}, labels),
		ClearsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "streamline_cache_clears_total",
			Help: "Total number of entity cache clears",
		}, labels),
		Size: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "streamline_cache_size",
			Help: "Current number of cached entities",
		}, labels),
	}
}

func (m *Metrics) recordHit(kind string) {
	if m == nil {
		return
	}
	m.HitsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) recordMiss(kind string) {
	if m == nil {
		return
	}
	m.MissesTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) recordSet(kind string, size int) {
	if m == nil {
		return
	}
	m.SetsTotal.WithLabelValues(kind).Inc()
	m.Size.WithLabelValues(kind).Set(float64(size))
}

func (m *Metrics) recordClear(kind string) {
	if m == nil {
		return
	}
	m.ClearsTotal.WithLabelValues(kind).Inc()
	m.Size.WithLabelValues(kind).Set(0)
}
