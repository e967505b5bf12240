package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup results recorded by RecordLookup.
const (
	LookupHit   = "hit"
	LookupStale = "stale"
	LookupMiss  = "miss"
)

// Metrics holds the sync layer's prometheus collectors on a private registry
// so every application session (and every test) starts from zero.
type Metrics struct {
	registry        *prometheus.Registry
	cacheLookups    *prometheus.CounterVec
	fetches         *prometheus.CounterVec
	retries         *prometheus.CounterVec
	invalidations   *prometheus.CounterVec
	evictions       prometheus.Counter
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorCount      *prometheus.CounterVec
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_cache_lookups_total",
			Help: "Cache lookups by entity kind and result (hit, stale, miss).",
		}, []string{"kind", "result"}),
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_fetches_total",
			Help: "Backend fetches started by the query runner, by outcome.",
		}, []string{"kind", "outcome"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_retries_total",
			Help: "Retried backend calls by entity kind and caller (query, mutation).",
		}, []string{"kind", "caller"}),
		invalidations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_cache_invalidations_total",
			Help: "Cache entries touched by mutation invalidation, by action.",
		}, []string{"kind", "action"}),
		evictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_cache_evictions_total",
			Help: "Cache entries removed by the idle sweep.",
		}),
		requestCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_http_requests_total",
			Help: "Dashboard API requests.",
		}, []string{"path", "method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_http_request_duration_seconds",
			Help:    "Dashboard API latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errorCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_http_errors_total",
			Help: "Dashboard API errors by domain error code.",
		}, []string{"path", "method", "code"}),
	}
}

// Registry exposes the collectors for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordLookup counts a cache read.
func (m *Metrics) RecordLookup(kind, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(kind, result).Inc()
}

// RecordFetch counts a completed backend fetch.
func (m *Metrics) RecordFetch(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.fetches.WithLabelValues(kind, outcome).Inc()
}

// RecordRetry counts one retry of a backend call.
func (m *Metrics) RecordRetry(kind, caller string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(kind, caller).Inc()
}

// RecordInvalidation counts cache entries touched by an invalidation step.
func (m *Metrics) RecordInvalidation(kind, action string, entries int) {
	if m == nil || entries <= 0 {
		return
	}
	m.invalidations.WithLabelValues(kind, action).Add(float64(entries))
}

// RecordEviction counts entries dropped by the idle sweep.
func (m *Metrics) RecordEviction(entries int) {
	if m == nil || entries <= 0 {
		return
	}
	m.evictions.Add(float64(entries))
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(path, method, code).Inc()
}
