// Package metrics exposes Prometheus instruments for task operations.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	operationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todokeeper_task_operations_total",
			Help: "Total number of task operations by outcome",
		},
		[]string{"operation", "status"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todokeeper_task_operation_duration_seconds",
			Help:    "Duration of task operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	extensionDays = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todokeeper_extension_days",
			Help:    "Distribution of days granted by successful due date extensions",
			Buckets: []float64{1, 2, 3, 7, 14, 30, 90, 365},
		},
	)
)

// Outcome labels.
const (
	StatusOK         = "ok"
	StatusNotFound   = "not_found"
	StatusForbidden  = "forbidden"
	StatusInvalid    = "invalid"
	StatusNotAllowed = "not_allowed"
	StatusError      = "error"
)

// Status maps an operation result to its outcome label.
func Status(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, common.ErrorTaskNotFound), errors.Is(err, common.ErrorAccountNotFound):
		return StatusNotFound
	case errors.Is(err, common.ErrorUnauthorized):
		return StatusForbidden
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorInvalidExtension):
		return StatusInvalid
	case errors.Is(err, common.ErrorExtensionNotAllowed):
		return StatusNotAllowed
	default:
		return StatusError
	}
}

// Observe records one finished operation.
//
//	start := time.Now()
//	defer func() { metrics.Observe("extend", start, err) }()
func Observe(operation string, start time.Time, err error) {
	operationCount.WithLabelValues(operation, Status(err)).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveExtension records the day count of a successful extension.
func ObserveExtension(days int) {
	extensionDays.Observe(float64(days))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
