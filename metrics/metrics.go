// Package metrics holds the Prometheus collectors shared across the service.
package metrics

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
			Name: "delivery_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "delivery_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// OrderTransitions counts order status changes by target status.
	OrderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_order_transitions_total",
			Help: "Order status changes by target status",
		},
		[]string{"status"},
	)

	// Assignments counts assignment attempts by outcome.
	Assignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_assignments_total",
			Help: "Rider assignment attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Notifications counts push dispatches by outcome (sent, failed, skipped).
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_push_notifications_total",
			Help: "Push notifications by outcome",
		},
		[]string{"outcome"},
	)

	// CompletedDeliveries counts rider releases that incremented totalDeliveries.
	CompletedDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "delivery_completed_deliveries_total",
			Help: "Deliveries counted on riders",
		},
	)
)

// GinMiddleware records request counts and latency per route pattern.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
