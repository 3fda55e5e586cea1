// Package metrics exposes the Prometheus metrics of all pagewindow packages.
// The metrics themselves are defined with promauto in their respective
// packages (pagination, store, cache, httpsource, ratelimit) so every package
// stays usable on its own.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all pagewindow metrics are registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Pagination Metrics (pkg/pagination):
//   - pagewindow_pagination_pages_total{mode} (Counter): Pages built, mode "page" or "batch"
//   - pagewindow_pagination_count_queries_total (Counter): Count collaborator calls
//   - pagewindow_pagination_count_skipped_total{reason} (Counter): Counts skipped ("supplied", "ids", "batch")
//   - pagewindow_pagination_fetch_duration_seconds (Histogram): Fetch collaborator duration
//   - pagewindow_pagination_collaborator_errors_total{operation} (Counter): Fetch/count errors
//   - pagewindow_pagination_batch_records_total (Counter): Records handed to batch consumers
//
// Store Metrics (pkg/store):
//   - pagewindow_store_operations_total{operation, result} (Counter)
//   - pagewindow_store_operation_duration_seconds{operation} (Histogram)
//
// Count Cache Metrics (pkg/cache):
//   - pagewindow_count_cache_hits_total (Counter)
//   - pagewindow_count_cache_misses_total (Counter)
//   - pagewindow_count_cache_fallbacks_total (Counter): Counts served by the source after a cache error
//   - pagewindow_count_cache_errors_total{operation} (Counter)
//
// Remote Source Metrics (pkg/httpsource):
//   - pagewindow_http_requests_total{source, method, status} (Counter)
//   - pagewindow_http_request_duration_seconds{source, method} (Histogram)
//   - pagewindow_http_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//   - pagewindow_http_retries_total{error_class} (Counter)
//   - pagewindow_http_retry_backoff_seconds{error_class} (Histogram)
//   - pagewindow_http_retry_exhausted_total{error_class} (Counter)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - pagewindow_ratelimit_remaining{source} (Gauge)
//   - pagewindow_ratelimit_blocks_total{source} (Counter)
//   - pagewindow_ratelimit_throttles_total{source} (Counter)
//
// Example Prometheus Queries:
//
//   # Count cache hit rate
//   sum(rate(pagewindow_count_cache_hits_total[5m])) /
//   (sum(rate(pagewindow_count_cache_hits_total[5m])) + sum(rate(pagewindow_count_cache_misses_total[5m])))
//
//   # Share of pages that needed a count query
//   rate(pagewindow_pagination_count_queries_total[5m]) / rate(pagewindow_pagination_pages_total{mode="page"}[5m])
//
//   # P95 fetch latency
//   histogram_quantile(0.95, rate(pagewindow_pagination_fetch_duration_seconds_bucket[5m]))
