// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CatalogRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_requests_total",
			Help: "Total number of catalog API page requests",
		},
		[]string{"category", "status"},
	)

	AlertRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_runs_total",
			Help: "Total number of alert pipeline runs by outcome",
		},
		[]string{"trigger", "outcome"},
	)

	AlertRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "alert_run_duration_seconds",
			Help: "Duration of one alert pipeline run in seconds",
		},
		[]string{"trigger"},
	)

	QualifyingDeals = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qualifying_deals",
			Help: "Number of qualifying deals found in the last run",
		},
		[]string{"category"},
	)

	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notification deliveries by channel",
		},
		[]string{"channel", "status"},
	)

	ItemsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_items_skipped_total",
			Help: "Total number of raw catalog items skipped during transformation",
		},
		[]string{"category"},
	)
)
