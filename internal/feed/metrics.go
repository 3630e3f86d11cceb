package feed

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricCacheHits    = "feed_cache_hits_total"
	MetricCacheMisses  = "feed_cache_misses_total"
	MetricFallbacks    = "feed_fallback_total"
	MetricPrefetches   = "feed_prefetch_total"
	MetricScoreLatency = "feed_score_latency_seconds"
)

// Metrics contains Prometheus metrics for the feed engine.
// All operations are thread-safe. A nil *Metrics is a no-op sink so the
// engine can run unmetered in tests.
type Metrics struct {
	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	fallbacks    prometheus.Counter
	prefetches   prometheus.Counter
	scoreLatency prometheus.Histogram
}

// NewMetrics creates a Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a
// registry.
func NewMetrics() *Metrics {
	return &Metrics{
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricCacheHits,
			Help: "Total number of feed page cache hits",
		}, []string{"kind"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricCacheMisses,
			Help: "Total number of feed page cache misses",
		}, []string{"kind"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFallbacks,
			Help: "Total number of degraded unscored fallback responses",
		}),
		prefetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricPrefetches,
			Help: "Total number of background next-page prefetches started",
		}),
		scoreLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricScoreLatency,
			Help:    "Histogram of candidate batch scoring latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.cacheHits,
		m.cacheMisses,
		m.fallbacks,
		m.prefetches,
		m.scoreLatency,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncCacheHit increments the cache hit counter for a feed kind.
func (m *Metrics) IncCacheHit(kind FeedKind) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(string(kind)).Inc()
}

// IncCacheMiss increments the cache miss counter for a feed kind.
func (m *Metrics) IncCacheMiss(kind FeedKind) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(string(kind)).Inc()
}

// IncFallback increments the degraded fallback counter.
func (m *Metrics) IncFallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}

// IncPrefetch increments the prefetch counter.
func (m *Metrics) IncPrefetch() {
	if m == nil {
		return
	}
	m.prefetches.Inc()
}

// ObserveScoreLatency records one candidate batch scoring duration.
func (m *Metrics) ObserveScoreLatency(seconds float64) {
	if m == nil {
		return
	}
	m.scoreLatency.Observe(seconds)
}
