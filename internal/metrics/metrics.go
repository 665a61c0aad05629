// Package metrics provides centralized Prometheus metrics registry for the race-data service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "karting"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total number of API requests by route, method and status",
	}, []string{"route", "method", "status"})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of document download circuit breaker trips",
	})
	SchedulerJobRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_job_runs_total",
		Help:      "Total number of scheduled job runs by job and outcome",
	}, []string{"job", "outcome"})
)

// Gauge metrics
var (
	APICacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "api_cache_hit_ratio",
		Help:      "Hit ratio of the API response cache",
	})
)

// Histogram metrics
var (
	APIRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Duration of API requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register service metrics
		registry.MustRegister(APIRequestsTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)
		registry.MustRegister(SchedulerJobRunsTotal)
		registry.MustRegister(APIRequestDuration)
		registry.MustRegister(APICacheHitRatio)

		// Register import metrics
		registry.MustRegister(ImportsTotal)
		registry.MustRegister(ImportedTeamsTotal)
		registry.MustRegister(ParseWarningsTotal)
		registry.MustRegister(ImportDuration)
		registry.MustRegister(StintStatsSourceTotal)

		// Register live metrics
		registry.MustRegister(LiveMessagesTotal)
		registry.MustRegister(LiveUnknownCommandsTotal)
		registry.MustRegister(LiveReconnectsTotal)
		registry.MustRegister(RelayStaleResponsesTotal)
		registry.MustRegister(OnboardMessagesTotal)
		registry.MustRegister(LiveSequence)
		registry.MustRegister(LiveRows)
		registry.MustRegister(LiveConnected)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordAPIRequest records a served API request.
func RecordAPIRequest(route, method string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// RecordJobRun records the outcome of a scheduled job.
func RecordJobRun(job string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	SchedulerJobRunsTotal.WithLabelValues(job, outcome).Inc()
}

// SetAPICacheHitRatio records the hit ratio of the API response cache.
func SetAPICacheHitRatio(ratio float64) {
	APICacheHitRatio.Set(ratio)
}
