// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

// Package metrics provides Prometheus instrumentation for the Palate
// service: HTTP latency and throughput, recommendation engine timings
// per strategy, cache efficiency, catalog sync operations, and circuit
// breaker state. All metrics are registered with the default registry
// via promauto and exposed at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "palate_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "palate_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "palate_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
	)

	// Recommendation engine metrics
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_recommendations_served_total",
			Help: "Total number of recommendation responses by strategy",
		},
		[]string{"strategy"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "palate_recommendation_duration_seconds",
			Help:    "Time spent computing a recommendation response",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"strategy"},
	)

	RecommendationResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "palate_recommendation_results",
			Help:    "Number of items returned per recommendation response",
			Buckets: []float64{0, 1, 3, 5, 10, 20, 50, 100},
		},
		[]string{"strategy"},
	)

	ABGroupAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_ab_group_assignments_total",
			Help: "Total number of A/B test group assignments",
		},
		[]string{"group"},
	)

	// Cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "palate_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "palate_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "palate_cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry or invalidation)",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "palate_cache_entries",
			Help: "Current number of cached recommendation responses",
		},
	)

	// Catalog store metrics
	CatalogItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "palate_catalog_items",
			Help: "Current number of active items in the catalog store",
		},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "palate_store_operation_duration_seconds",
			Help:    "Duration of catalog store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_store_errors_total",
			Help: "Total number of catalog store errors",
		},
		[]string{"operation"},
	)

	// Sync metrics
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "palate_sync_duration_seconds",
			Help:    "Duration of catalog sync operations",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	SyncRecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_sync_records_processed_total",
			Help: "Total number of records ingested during sync",
		},
		[]string{"record_type"}, // "item", "user", "order"
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_sync_errors_total",
			Help: "Total number of sync errors",
		},
		[]string{"error_type"}, // "upstream", "decode", "store"
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "palate_sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful catalog sync",
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "palate_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_circuit_breaker_trips_total",
			Help: "Total number of circuit breaker open transitions",
		},
		[]string{"name"},
	)
)

// RecordAPIRequest records a completed HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRecommendation records a computed recommendation response.
func RecordRecommendation(strategy string, results int, duration time.Duration) {
	RecommendationsServed.WithLabelValues(strategy).Inc()
	RecommendationDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	RecommendationResults.WithLabelValues(strategy).Observe(float64(results))
}

// RecordSyncRun records a completed sync run. A nil error marks a
// success and refreshes the last success timestamp.
func RecordSyncRun(duration time.Duration, err error, errorType string) {
	SyncDuration.Observe(duration.Seconds())
	if err != nil {
		if errorType == "" {
			errorType = "other"
		}
		SyncErrors.WithLabelValues(errorType).Inc()
		return
	}
	SyncLastSuccess.Set(float64(time.Now().Unix()))
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
