// Package metrics provides the Prometheus registry used by duoload and pushes
// collected metrics to a Pushgateway.
//
// All metrics are defined in their respective packages (transfer, client,
// cache) via promauto, so this package only documents them and exposes the
// registry. duoload is a one-shot CLI, so metrics are pushed at the end of a
// run instead of being scraped.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultJob is the Pushgateway job name.
const DefaultJob = "duoload"

// Gatherer is the source of pushed metrics. Every duoload metric is
// registered on the default registry via promauto.
var Gatherer = prometheus.DefaultGatherer

// Push sends everything in Gatherer to the Pushgateway at url under job,
// replacing metrics previously pushed for the same job.
func Push(ctx context.Context, url, job string) error {
	return PushFrom(ctx, Gatherer, url, job)
}

// PushFrom is Push with an explicit gatherer.
func PushFrom(ctx context.Context, g prometheus.Gatherer, url, job string) error {
	if url == "" {
		return fmt.Errorf("pushgateway url is required")
	}
	if job == "" {
		job = DefaultJob
	}

	pusher := push.New(url, job).
		Gatherer(g).
		Client(&http.Client{Timeout: 10 * time.Second})

	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

// Metrics Documentation
//
// Transfer Metrics (pkg/transfer):
//   - duoload_pages_fetched_total (Counter): Pages returned by the record source
//   - duoload_cards_total{result} (Counter): Cards by outcome (added, duplicate, rejected)
//   - duoload_page_fetch_duration_seconds (Histogram): Time spent in FetchPage
//   - duoload_transfer_errors_total{stage} (Counter): Failed runs by stage
//   - duoload_transfer_duration_seconds (Histogram): Duration of successful runs
//
// Request Metrics (pkg/client):
//   - duoload_api_requests_total{status} (Counter): Requests by HTTP status
//   - duoload_api_request_duration_seconds (Histogram): Request duration
//   - duoload_api_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, protocol)
//
// Retry Metrics (pkg/client):
//   - duoload_api_retries_total{error_class} (Counter): Retry attempts by error class
//   - duoload_api_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - duoload_api_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - duoload_cache_hits_total (Counter): Pages served from Redis
//   - duoload_cache_misses_total (Counter): Cache misses
//   - duoload_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Duplicate ratio of the last run
//   duoload_cards_total{result="duplicate"} / ignoring(result) sum(duoload_cards_total)
//
//   # Cache Hit Rate
//   duoload_cache_hits_total / (duoload_cache_hits_total + duoload_cache_misses_total)
//
//   # Failed runs by stage
//   sum by (stage) (duoload_transfer_errors_total)
