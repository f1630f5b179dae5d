package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	TenantsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenants_created_total",
			Help: "Total number of tenants created by plan",
		},
		[]string{"plan"},
	)
	OrdersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created by currency",
		},
		[]string{"currency"},
	)
	OrderStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_changes_total",
			Help: "Total number of order status changes by new status",
		},
		[]string{"status"},
	)
	Alerts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_total",
			Help: "Total number of alerts raised",
		},
		[]string{"alert"},
	)
)

// InitMetrics registers the collectors with the default registry. Registering
// twice only logs.
func InitMetrics() {
	collectors := map[string]prometheus.Collector{
		"HTTPRequests":       HTTPRequests,
		"HTTPDuration":       HTTPDuration,
		"TenantsCreated":     TenantsCreated,
		"OrdersCreated":      OrdersCreated,
		"OrderStatusChanges": OrderStatusChanges,
		"Alerts":             Alerts,
	}
	for name, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			log.Error().Err(err).Msgf("Failed to register %s metric", name)
		}
	}
}
