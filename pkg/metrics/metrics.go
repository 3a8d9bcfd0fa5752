// Package metrics provides the Prometheus registry, the /metrics handler and
// the HTTP middleware for the analyzer. Domain metrics are defined in their
// own packages (batch, inference, cache, ratelimit, report) to avoid
// circular dependencies.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the analyzer.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Run Metrics (pkg/batch):
//   - placement_runs_total{outcome} (Counter): Runs by outcome (completed, exhausted, failed, cancelled)
//   - placement_batches_total{outcome} (Counter): Batches by outcome (committed, sentinel)
//   - placement_credential_rotations_total (Counter): Credential advances after a rejected key
//   - placement_records_processed_total (Counter): Records committed to the accumulator
//
// Inference Metrics (pkg/inference):
//   - placement_inference_requests_total{mode, status} (Counter): Model calls by mode and HTTP status
//   - placement_inference_duration_seconds{mode} (Histogram): Model call latency
//   - placement_inference_errors_total{class} (Counter): Errors by class
//   - placement_retries_total{error_class} (Counter): Retry attempts
//   - placement_retry_backoff_seconds{error_class} (Histogram): Backoff durations
//   - placement_retry_exhausted_total{error_class} (Counter): Requests that exhausted retries
//
// Cache Metrics (pkg/cache):
//   - placement_cache_hits_total{mode} (Counter)
//   - placement_cache_misses_total{mode} (Counter)
//   - placement_cache_size_bytes (Gauge)
//   - placement_cache_errors_total{operation} (Counter)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - placement_rate_limit_cooldowns_total (Counter)
//   - placement_rate_limit_skips_total (Counter)
//   - placement_rate_limit_cooldown_seconds (Histogram)
//
// Report Metrics (pkg/report):
//   - placement_reports_total{outcome} (Counter)
//
// HTTP Metrics (this package):
//   - chi_requests_total{code, method, path} (Counter)
//   - chi_request_duration_milliseconds{code, method, path} (Histogram)
//
// Example Prometheus Queries:
//
//   # Share of batches replaced by error sentinels
//   sum(rate(placement_batches_total{outcome="sentinel"}[1h])) /
//   sum(rate(placement_batches_total[1h]))
//
//   # Cache Hit Rate
//   sum(rate(placement_cache_hits_total[5m])) /
//   (sum(rate(placement_cache_hits_total[5m])) + sum(rate(placement_cache_misses_total[5m])))
//
//   # P95 model latency
//   histogram_quantile(0.95, rate(placement_inference_duration_seconds_bucket[5m]))
