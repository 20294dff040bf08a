package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

const rateCache = "exchange_rate"

var anomalyTypes = []string{
	domain.AnomalyUnusualAmount,
	domain.AnomalyFrequencySpike,
	domain.AnomalyNewMerchant,
	domain.AnomalyDuplicate,
	domain.AnomalyLocationChange,
}

// Metrics holds all Prometheus metrics of the service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	externalErrors    *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	anomaliesDetected *prometheus.CounterVec
	insightsGenerated prometheus.Counter
	rateLookups       *prometheus.CounterVec
	storeErrors       *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ff_request_duration_seconds",
				Help:    "Duration of service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ff_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ff_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ff_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		anomaliesDetected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ff_anomalies_detected_total",
				Help: "Anomalies raised by the analysis engine.",
			},
			[]string{"type"},
		),
		insightsGenerated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ff_insights_generated_total",
				Help: "Smart insights returned to users.",
			},
		),
		rateLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ff_exchange_rate_lookups_total",
				Help: "Exchange rate refreshes by the source that answered.",
			},
			[]string{"source"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ff_store_errors_total",
				Help: "Record store failures by operation.",
			},
			[]string{"operation"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrRateCacheHit counts an exchange rate served from cache.
func (m *Metrics) IncrRateCacheHit() {
	m.cacheHits.WithLabelValues(rateCache).Inc()
}

// IncrRateCacheMiss counts an exchange rate lookup that had to refresh.
func (m *Metrics) IncrRateCacheMiss() {
	m.cacheMisses.WithLabelValues(rateCache).Inc()
}

// RecordAnomalies counts anomalies by type.
func (m *Metrics) RecordAnomalies(anomalies []domain.Anomaly) {
	for _, a := range anomalies {
		m.anomaliesDetected.WithLabelValues(a.Type).Inc()
	}
}

// RecordInsights counts generated insights.
func (m *Metrics) RecordInsights(n int) {
	m.insightsGenerated.Add(float64(n))
}

// IncrRateLookup counts a rate refresh answered by source (live or fallback).
func (m *Metrics) IncrRateLookup(source string) {
	m.rateLookups.WithLabelValues(source).Inc()
}

// IncrStoreError counts a failed record store operation.
func (m *Metrics) IncrStoreError(operation string) {
	m.storeErrors.WithLabelValues(operation).Inc()
}

// GetEngineSnapshot returns the cumulative engine counters for the
// GET /v1/metrics/engine endpoint.
func (m *Metrics) GetEngineSnapshot() *domain.EngineMetrics {
	anomalies := make(map[string]float64, len(anomalyTypes))
	for _, t := range anomalyTypes {
		anomalies[t] = metricValue(m.anomaliesDetected.WithLabelValues(t))
	}

	live := metricValue(m.rateLookups.WithLabelValues(domain.RateSourceLive))
	fallback := metricValue(m.rateLookups.WithLabelValues(domain.RateSourceFallback))
	hits := metricValue(m.cacheHits.WithLabelValues(rateCache))
	misses := metricValue(m.cacheMisses.WithLabelValues(rateCache))

	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.EngineMetrics{
		AnomaliesDetected: anomalies,
		InsightsGenerated: metricValue(m.insightsGenerated),
		RateLookups:       live + fallback,
		RateFallbacks:     fallback,
		RateCacheHitRate:  hitRate,
		StoreErrors:       sumVec(m.storeErrors),
		Period:            "all_time",
	}
}

// metricValue extracts the current value of a counter.
func metricValue(c prometheus.Metric) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// sumVec adds up every label combination of a counter vector.
func sumVec(cv *prometheus.CounterVec) float64 {
	ch := make(chan prometheus.Metric, 16)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	var total float64
	for metric := range ch {
		total += metricValue(metric)
	}
	return total
}
