package main

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rulekit_evaluations_total",
			Help: "Total number of rule evaluations",
		},
		[]string{"ruleset", "status"},
	)

	evaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rulekit_evaluation_duration_seconds",
			Help:    "Rule evaluation duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"ruleset"},
	)

	abtestAssignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rulekit_abtest_assignments_total",
			Help: "Total number of A/B test variant assignments",
		},
		[]string{"test_id", "variant"},
	)

	activeGoroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_goroutines",
			Help: "Number of active goroutines",
		},
	)

	memoryUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "memory_usage_bytes",
			Help: "Memory usage in bytes",
		},
	)
)

// PrometheusMiddleware creates a middleware for Prometheus metrics
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		if path == "/metrics" {
			c.Next()
			return
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(path, c.Request.Method, status).Inc()
		httpRequestDuration.WithLabelValues(path, c.Request.Method).Observe(duration)
	}
}

// RecordEvaluationMetrics records rule evaluation metrics.
func RecordEvaluationMetrics(ruleset, status string, duration time.Duration) {
	evaluationsTotal.WithLabelValues(ruleset, status).Inc()
	evaluationDuration.WithLabelValues(ruleset).Observe(duration.Seconds())
}

// RecordABTestAssignment records an A/B test variant assignment.
func RecordABTestAssignment(testID, variant string) {
	abtestAssignmentsTotal.WithLabelValues(testID, variant).Inc()
}

// UpdateSystemMetrics updates system-level metrics
func UpdateSystemMetrics(goroutines int, memBytes uint64) {
	activeGoroutines.Set(float64(goroutines))
	memoryUsage.Set(float64(memBytes))
}
