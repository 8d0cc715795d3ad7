// Package metrics holds the process-wide Prometheus collectors, registered once at
// package init and scraped at /metrics via promhttp in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cold_backend_http_requests_total",
			Help: "Total HTTP requests by method, path, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cold_backend_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by method and path.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cold_backend_sync_duration_seconds",
			Help:    "Duration of upstream import/reconciliation runs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	SyncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cold_backend_sync_total",
			Help: "Total sync runs by terminal status.",
		},
		[]string{"status"},
	)

	PicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cold_backend_picks_total",
			Help: "Total units picked by sku.",
		},
		[]string{"sku"},
	)

	StockExceptionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cold_backend_stock_exceptions_open",
			Help: "Current count of unresolved stock exceptions.",
		},
	)
)

func init() {
	prometheus.MustRegister(SyncDuration, SyncTotal, PicksTotal, StockExceptionsOpen)
}
