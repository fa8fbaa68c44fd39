// Package metrics exposes Prometheus metrics and the /healthz endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the trends service. All
// Observe/Inc helpers are safe to call on a nil *Metrics.
type Metrics struct {
	// Upstream fetches
	FetchTotal    *prometheus.CounterVec   // labels: source, result=ok|error
	FetchDuration *prometheus.HistogramVec // labels: source

	// Historical store
	StoreFallbacks *prometheus.CounterVec // labels: dataset
	StoreSaveDur   prometheus.Histogram
	StoreErrors    *prometheus.CounterVec // labels: op=load|save

	// Indicator computation
	IndicatorComputeDur *prometheus.HistogramVec // labels: indicator

	// Response cache
	CacheLookups   *prometheus.CounterVec // labels: result=fresh|stale|miss
	CacheFallbacks *prometheus.CounterVec // labels: op

	// Circuit breaker
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter

	// Scheduler and push gateway
	RefreshRuns *prometheus.CounterVec // labels: result=ok|empty|skipped
	WSClients   prometheus.Gauge

	// HTTP API
	HTTPRequests *prometheus.CounterVec // labels: route, code
}

// NewMetrics creates all metrics and registers them with reg. A nil reg
// means the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trends_fetch_total",
			Help: "Upstream provider fetches by source and result",
		}, []string{"source", "result"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trends_fetch_duration_seconds",
			Help:    "Upstream provider fetch latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),

		StoreFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trends_store_fallbacks_total",
			Help: "Requests served from stored history after a failed fetch",
		}, []string{"dataset"}),
		StoreSaveDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trends_store_save_duration_seconds",
			Help:    "Historical store full-series save latency",
			Buckets: prometheus.DefBuckets,
		}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trends_store_errors_total",
			Help: "Historical store errors by operation",
		}, []string{"op"}),

		IndicatorComputeDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trends_indicator_compute_duration_seconds",
			Help:    "Indicator computation latency per request",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"indicator"}),

		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trends_cache_lookups_total",
			Help: "Response cache lookups by result",
		}, []string{"result"}),
		CacheFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trends_cache_local_fallbacks_total",
			Help: "Cache operations served locally because Redis was unavailable",
		}, []string{"op"}),

		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trends_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trends_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),

		RefreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trends_refresh_runs_total",
			Help: "Scheduled dataset refreshes by result",
		}, []string{"result"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trends_ws_clients",
			Help: "Connected websocket stream clients",
		}),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trends_http_requests_total",
			Help: "HTTP API requests by route and status code",
		}, []string{"route", "code"}),
	}

	reg.MustRegister(
		m.FetchTotal,
		m.FetchDuration,
		m.StoreFallbacks,
		m.StoreSaveDur,
		m.StoreErrors,
		m.IndicatorComputeDur,
		m.CacheLookups,
		m.CacheFallbacks,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
		m.RefreshRuns,
		m.WSClients,
		m.HTTPRequests,
	)
	return m
}

// ObserveFetch records one upstream call.
func (m *Metrics) ObserveFetch(source string, took time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.FetchTotal.WithLabelValues(source, result).Inc()
	m.FetchDuration.WithLabelValues(source).Observe(took.Seconds())
}

// IncStoreFallback counts a request answered from stored history.
func (m *Metrics) IncStoreFallback(dataset string) {
	if m == nil {
		return
	}
	m.StoreFallbacks.WithLabelValues(dataset).Inc()
}

// ObserveStoreSave records a successful full-series save.
func (m *Metrics) ObserveStoreSave(took time.Duration) {
	if m == nil {
		return
	}
	m.StoreSaveDur.Observe(took.Seconds())
}

// IncStoreError counts a failed load or save.
func (m *Metrics) IncStoreError(op string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(op).Inc()
}

// ObserveCompute records one indicator computation.
func (m *Metrics) ObserveCompute(indicator string, took time.Duration) {
	if m == nil {
		return
	}
	m.IndicatorComputeDur.WithLabelValues(indicator).Observe(took.Seconds())
}

// ObserveCacheLookup records a response cache lookup: "fresh", "stale" or "miss".
func (m *Metrics) ObserveCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// IncCacheFallback counts a cache operation that Redis could not serve.
func (m *Metrics) IncCacheFallback(op string) {
	if m == nil {
		return
	}
	m.CacheFallbacks.WithLabelValues(op).Inc()
}

// SetBreakerState mirrors a circuit breaker transition. state follows the
// breaker's numbering; opened counts a trip.
func (m *Metrics) SetBreakerState(state int, opened bool) {
	if m == nil {
		return
	}
	m.RedisCircuitBreakerState.Set(float64(state))
	if opened {
		m.RedisCircuitBreakerTrips.Inc()
	}
}

// IncRefresh counts a scheduled refresh.
func (m *Metrics) IncRefresh(result string) {
	if m == nil {
		return
	}
	m.RefreshRuns.WithLabelValues(result).Inc()
}

// SetWSClients sets the number of connected stream clients.
func (m *Metrics) SetWSClients(n int) {
	if m == nil {
		return
	}
	m.WSClients.Set(float64(n))
}

// IncHTTP counts one API response.
func (m *Metrics) IncHTTP(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, itoa(code)).Inc()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
