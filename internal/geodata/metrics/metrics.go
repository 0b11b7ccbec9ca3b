package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the aggregation pipeline. A nil *Metrics is valid and
// records nothing, so tests can run services without touching the global
// prometheus registry.
type Metrics struct {
	SourceRequests  *prometheus.CounterVec
	CacheHits       *prometheus.CounterVec
	CacheMisses     *prometheus.CounterVec
	FallbackResults *prometheus.CounterVec
	QuotaRemaining  *prometheus.GaugeVec
}

func New() *Metrics {
	return &Metrics{
		SourceRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "urbanclear_geodata_source_requests_total",
			Help: "Total source invocations by source, capability and outcome",
		}, []string{"source", "capability", "outcome"}),
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "urbanclear_geodata_cache_hits_total",
			Help: "Total response cache hits by operation",
		}, []string{"operation"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "urbanclear_geodata_cache_misses_total",
			Help: "Total response cache misses by operation",
		}, []string{"operation"}),
		FallbackResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "urbanclear_geodata_fallback_results_total",
			Help: "Total results served by the synthetic fallback source",
		}, []string{"capability"}),
		QuotaRemaining: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "urbanclear_geodata_quota_remaining",
			Help: "Remaining request budget by source and window",
		}, []string{"source", "window"}),
	}
}

func (m *Metrics) ObserveRequest(source, capability, outcome string) {
	if m == nil {
		return
	}
	m.SourceRequests.WithLabelValues(source, capability, outcome).Inc()
}

func (m *Metrics) ObserveCacheHit(operation string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveCacheMiss(operation string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveFallback(capability string) {
	if m == nil {
		return
	}
	m.FallbackResults.WithLabelValues(capability).Inc()
}

func (m *Metrics) SetQuotaRemaining(source, window string, remaining int) {
	if m == nil {
		return
	}
	m.QuotaRemaining.WithLabelValues(source, window).Set(float64(remaining))
}
