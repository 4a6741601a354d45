package mongodb

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"collection", "operation"},
	)

	operationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_operations_total",
			Help: "Total number of document store operations by outcome",
		},
		[]string{"collection", "operation", "status"},
	)
)

// observe records one operation. It is deferred with a pointer to the named
// error result so the final outcome is labelled.
func observe(collection, operation string, start time.Time, errp *error, notFound error) {
	status := "ok"
	if err := *errp; err != nil {
		status = "error"
		if notFound != nil && errors.Is(err, notFound) {
			status = "not_found"
		}
	}
	operationDuration.WithLabelValues(collection, operation).Observe(time.Since(start).Seconds())
	operationTotal.WithLabelValues(collection, operation, status).Inc()
}
