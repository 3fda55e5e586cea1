package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for pagination.
var (
	pagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagewindow_pagination_pages_total",
		Help: "Total pages built by mode",
	}, []string{"mode"}) // "page", "batch"

	countQueriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagewindow_pagination_count_queries_total",
		Help: "Total count collaborator invocations",
	})

	countSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagewindow_pagination_count_skipped_total",
		Help: "Total pages whose count was skipped by reason",
	}, []string{"reason"}) // "supplied", "ids", "batch"

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pagewindow_pagination_fetch_duration_seconds",
		Help:    "Duration of fetch collaborator calls in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	collaboratorErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagewindow_pagination_collaborator_errors_total",
		Help: "Total errors returned by collaborators by operation",
	}, []string{"operation"}) // "fetch", "count"

	batchRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagewindow_pagination_batch_records_total",
		Help: "Total records handed to batch iteration consumers",
	})
)
