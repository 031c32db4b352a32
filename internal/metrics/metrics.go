// Package metrics defines Prometheus metrics for the family store and the
// reconciliation cache.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eternal_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eternal_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eternal_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	PushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eternal_reconcile_pushes_total",
			Help: "Remote writes issued by the reconciliation cache",
		},
		[]string{"kind", "op", "result"},
	)

	PushQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "eternal_reconcile_queue_depth",
			Help: "Pushes queued or running in the reconciliation cache",
		},
	)

	DroppedErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "eternal_reconcile_dropped_errors_total",
			Help: "Reconciliation errors dropped because the error channel was full",
		},
	)

	ImportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eternal_gedcom_import_duration_seconds",
			Help:    "GEDCOM import duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ImportedPeople = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "eternal_gedcom_imported_people_total",
			Help: "Persons produced by GEDCOM imports",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		PushesTotal, PushQueueDepth, DroppedErrors,
		ImportDuration, ImportedPeople,
	)
}
