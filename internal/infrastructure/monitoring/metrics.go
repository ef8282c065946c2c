package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/ports/outbound"
)

const namespace = "nutrition"

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	registry *prometheus.Registry
	logger   *zap.Logger

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// AI metrics
	aiRequestsTotal   *prometheus.CounterVec
	aiRequestDuration *prometheus.HistogramVec
	breakerState      *prometheus.GaugeVec

	// Business metrics
	verificationsTotal *prometheus.CounterVec
	opinionsTotal      *prometheus.CounterVec
	opinionDuration    prometheus.Histogram
	mealScores         prometheus.Histogram
	mealGradesTotal    *prometheus.CounterVec
	cacheLookupsTotal  *prometheus.CounterVec
}

var _ outbound.MetricsRecorder = (*MetricsCollector)(nil)

// NewMetricsCollector creates a collector registered on its own registry
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsCollector{
		registry: reg,
		logger:   logger.Named("metrics"),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		aiRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_requests_total",
				Help:      "Total number of AI completion requests",
			},
			[]string{"provider", "purpose", "status"},
		),
		aiRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ai_request_duration_seconds",
				Help:      "AI completion duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"provider", "purpose"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ai_circuit_breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"breaker"},
		),

		verificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "advice_verifications_total",
				Help:      "Verified advice candidates by outcome",
			},
			[]string{"outcome"},
		),
		opinionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "advice_opinions_total",
				Help:      "AI opinions returned by verification status",
			},
			[]string{"status"},
		),
		opinionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "advice_opinion_duration_seconds",
				Help:      "Time to generate and verify an AI opinion",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
			},
		),
		mealScores: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "meal_score",
				Help:      "Distribution of meal scores",
				Buckets:   prometheus.LinearBuckets(10, 10, 10),
			},
		),
		mealGradesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "meal_grades_total",
				Help:      "Meals rated by letter grade",
			},
			[]string{"grade"},
		),
		cacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verdict_cache_lookups_total",
				Help:      "Verdict cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// Registry exposes the underlying registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records one served request
func (m *MetricsCollector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAIRequest records one completion call
func (m *MetricsCollector) RecordAIRequest(provider, purpose, status string, duration time.Duration) {
	m.aiRequestsTotal.WithLabelValues(provider, purpose, status).Inc()
	m.aiRequestDuration.WithLabelValues(provider, purpose).Observe(duration.Seconds())
}

// SetBreakerState publishes a circuit breaker state
func (m *MetricsCollector) SetBreakerState(name string, state int) {
	m.breakerState.WithLabelValues(name).Set(float64(state))
}

func (m *MetricsCollector) RecordVerification(outcome string) {
	m.verificationsTotal.WithLabelValues(outcome).Inc()
}

func (m *MetricsCollector) RecordOpinion(status string, duration time.Duration) {
	m.opinionsTotal.WithLabelValues(status).Inc()
	m.opinionDuration.Observe(duration.Seconds())
}

func (m *MetricsCollector) RecordMealScore(score int, grade string) {
	m.mealScores.Observe(float64(score))
	m.mealGradesTotal.WithLabelValues(grade).Inc()
}

func (m *MetricsCollector) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookupsTotal.WithLabelValues(result).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(m.logger),
	})
}
