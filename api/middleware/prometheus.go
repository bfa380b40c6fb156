package middleware

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
		[]string{"method", "endpoint", "status", "service"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	relationOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relation_operations_total",
			Help: "Total number of relationship and visibility operations by outcome",
		},
		[]string{"operation", "outcome", "service"},
	)

	relationOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relation_operation_duration_seconds",
			Help:    "Duration of relationship and visibility operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "service"},
	)

	visibilityDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visibility_decisions_total",
			Help: "Items evaluated by the visibility resolver, split by verdict",
		},
		[]string{"verdict", "service"},
	)
)

func PrometheusMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			status,
			serviceName,
		).Inc()

		httpRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			serviceName,
		).Observe(duration)
	}
}

// RecordRelationOperation counts one service call; outcome is the error kind or "ok".
func RecordRelationOperation(operation, outcome, serviceName string, duration time.Duration) {
	relationOperationsTotal.WithLabelValues(operation, outcome, serviceName).Inc()
	relationOperationDuration.WithLabelValues(operation, serviceName).Observe(duration.Seconds())
}

func RecordVisibility(visible, hidden int, serviceName string) {
	if visible > 0 {
		visibilityDecisions.WithLabelValues("visible", serviceName).Add(float64(visible))
	}
	if hidden > 0 {
		visibilityDecisions.WithLabelValues("filtered", serviceName).Add(float64(hidden))
	}
}
