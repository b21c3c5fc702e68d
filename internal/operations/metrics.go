package operations

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridmerge_operations_total",
		Help: "Combine operations by terminal status.",
	}, []string{"status"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gridmerge_operation_duration_seconds",
		Help:    "End-to-end combine operation duration.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"status"})
)

func recordOperation(status string, d time.Duration) {
	operationsTotal.WithLabelValues(status).Inc()
	operationDuration.WithLabelValues(status).Observe(d.Seconds())
}
