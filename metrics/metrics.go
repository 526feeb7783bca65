// Package metrics exposes Prometheus instrumentation for the dashboard
// backend: HTTP traffic, startup seeding outcomes, and pool health.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_inei_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_inei_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Startup seeding
	seedStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_inei_seed_steps_total",
			Help: "Seed step outcomes by step name",
		},
		[]string{"step", "outcome"}, // applied, already_seeded, failed
	)

	// Auth
	loginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_inei_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"}, // success, invalid_credentials, rate_limited
	)

	// Database pool
	dbConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_inei_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	dbConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_inei_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// Alert feed
	alertasSinLeer = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_inei_alertas_sin_leer",
			Help: "Unread alerts currently in the feed",
		},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_inei_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type", "component"}, // auth, database, redis, validation
	)
)

// PrometheusMiddleware creates a Fiber middleware for Prometheus metrics
func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		method := c.Method()
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		statusCode := strconv.Itoa(c.Response().StatusCode())

		httpRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// RecordSeedStep records the outcome of one startup seed step.
func RecordSeedStep(step, outcome string) {
	seedStepsTotal.WithLabelValues(step, outcome).Inc()
}

// RecordLoginAttempt increments the login attempt counter.
func RecordLoginAttempt(outcome string) {
	loginAttemptsTotal.WithLabelValues(outcome).Inc()
}

// UpdateDatabaseMetrics updates database connection metrics
func UpdateDatabaseMetrics(active, idle int) {
	dbConnectionsActive.Set(float64(active))
	dbConnectionsIdle.Set(float64(idle))
}

// UpdateAlertasSinLeer updates the unread alert gauge.
func UpdateAlertasSinLeer(count int) {
	alertasSinLeer.Set(float64(count))
}

// IncrementError increments error counter
func IncrementError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}
