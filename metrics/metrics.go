// Package metrics holds Prometheus instruments shared across the service.
// All collectors are registered with the global registry and exposed on
// /metrics when METRICS_ENABLED is set.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Handled HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"})

	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "response_cache_hits_total",
			Help: "Cumulative number of Redis response cache hits.",
		})

	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "response_cache_misses_total",
			Help: "Cumulative number of Redis response cache misses.",
		})

	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the per-caller rate limiter.",
		})

	SlugRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slug_conflict_retries_total",
			Help: "Inserts retried after a unique slug violation, by table.",
		}, []string{"table"})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		CacheHitsTotal,
		CacheMissesTotal,
		RateLimitedTotal,
		SlugRetriesTotal,
	)
}
