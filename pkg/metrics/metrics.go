package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "farmportal_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	ArchiveOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmportal_archive_operations_total",
			Help: "Archive, restore and purge operations by document type and outcome",
		},
		[]string{"op", "document_type", "outcome"},
	)

	StockRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmportal_stock_rejected_total",
			Help: "Stock adjustments refused because they would go below zero",
		},
		[]string{"kind"},
	)
)

func RecordHTTP(method, path, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}

func RecordArchive(op, docType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ArchiveOps.WithLabelValues(op, docType, outcome).Inc()
}
