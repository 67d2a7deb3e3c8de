// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Catalog fetches (IGN, USGS, EMSC)
// - Upsert outcomes and database query performance
// - Geospatial enrichment and shakemap downloads
// - Cross-catalog deduplication
// - Pipeline cycle timing

var (
	// Catalog Fetch Metrics
	CatalogFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_fetch_duration_seconds",
			Help:    "Duration of catalog API fetches in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"source"},
	)

	CatalogFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_fetch_errors_total",
			Help: "Total number of catalog fetch failures",
		},
		[]string{"source", "error_type"}, // "timeout", "http_status", "decode", "breaker_open"
	)

	CatalogEventsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_events_fetched_total",
			Help: "Total number of raw events returned by catalog fetches",
		},
		[]string{"source"},
	)

	// Upsert Metrics
	EventUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_upserts_total",
			Help: "Total number of event upserts by outcome",
		},
		[]string{"source", "status"}, // status: "new", "updated", "unchanged"
	)

	EventUpsertErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_upsert_errors_total",
			Help: "Total number of failed event upserts",
		},
		[]string{"source"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postgres_query_duration_seconds",
			Help:    "Duration of PostgreSQL queries in seconds",
			Buckets: prometheus.DefBuckets, // 0.005s, 0.01s, 0.025s, 0.05s, 0.1s, 0.25s, 0.5s, 1s, 2.5s, 5s, 10s
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postgres_query_errors_total",
			Help: "Total number of PostgreSQL query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// Enrichment Metrics
	EnrichmentLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_lookups_total",
			Help: "Total number of geospatial enrichment lookups",
		},
		[]string{"kind"}, // "plate", "origin_country", "affected_countries"
	)

	EnrichmentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_failures_total",
			Help: "Total number of geospatial enrichment failures (event still persisted)",
		},
		[]string{"kind"},
	)

	ShakemapFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shakemap_fetch_duration_seconds",
			Help:    "Duration of USGS shakemap detail and contour fetches in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
	)

	ShakemapFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shakemap_fetches_total",
			Help: "Total number of shakemap fetch attempts by result",
		},
		[]string{"result"}, // "ok", "no_contours", "error"
	)

	// Dedup Metrics
	DedupCandidatesScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dedup_candidates_scanned_total",
			Help: "Total number of candidate events scanned for duplicates",
		},
	)

	DedupLinksCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dedup_links_created_total",
			Help: "Total number of duplicate links created",
		},
	)

	DedupErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dedup_errors_total",
			Help: "Total number of errors during duplicate detection",
		},
	)

	// Pipeline Cycle Metrics
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_cycle_duration_seconds",
			Help:    "Duration of full pipeline cycles in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600}, // Cycles can take minutes on initial sync
		},
	)

	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_cycles_total",
			Help: "Total number of pipeline cycles by result",
		},
		[]string{"result"}, // "ok", "error"
	)

	CycleLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_cycle_last_success_timestamp",
			Help: "Unix timestamp of last successful pipeline cycle",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Ops HTTP Metrics
	OpsRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ops_http_request_duration_seconds",
			Help:    "Duration of ops endpoint requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"method", "path", "status"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordCatalogFetch records the outcome of one catalog fetch
func RecordCatalogFetch(source string, eventCount int, duration time.Duration, errorType string) {
	CatalogFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	CatalogEventsFetched.WithLabelValues(source).Add(float64(eventCount))
	if errorType != "" {
		CatalogFetchErrors.WithLabelValues(source, errorType).Inc()
	}
}

// RecordUpsert records an upsert outcome ("new", "updated", "unchanged")
func RecordUpsert(source, status string) {
	EventUpserts.WithLabelValues(source, status).Inc()
}

// RecordUpsertError records a failed upsert
func RecordUpsertError(source string) {
	EventUpsertErrors.WithLabelValues(source).Inc()
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordEnrichment records an enrichment lookup and whether it failed
func RecordEnrichment(kind string, err error) {
	EnrichmentLookups.WithLabelValues(kind).Inc()
	if err != nil {
		EnrichmentFailures.WithLabelValues(kind).Inc()
	}
}

// RecordShakemapFetch records a shakemap fetch attempt
func RecordShakemapFetch(duration time.Duration, result string) {
	ShakemapFetchDuration.Observe(duration.Seconds())
	ShakemapFetches.WithLabelValues(result).Inc()
}

// RecordDedupScan records candidates scanned during one dedup pass
func RecordDedupScan(candidates int) {
	DedupCandidatesScanned.Add(float64(candidates))
}

// RecordDedupLink records a duplicate link being created
func RecordDedupLink() {
	DedupLinksCreated.Inc()
}

// RecordDedupError records an error during duplicate detection
func RecordDedupError() {
	DedupErrors.Inc()
}

// RecordCycle records a completed pipeline cycle
func RecordCycle(duration time.Duration, err error) {
	CycleDuration.Observe(duration.Seconds())
	if err != nil {
		CyclesTotal.WithLabelValues("error").Inc()
	} else {
		CyclesTotal.WithLabelValues("ok").Inc()
		CycleLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordBreakerRequest records a request outcome through a circuit breaker
func RecordBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordBreakerTransition records a circuit breaker state change and updates
// the state gauge (0=closed, 1=half-open, 2=open)
func RecordBreakerTransition(name, fromState, toState string, stateValue float64) {
	CircuitBreakerTransitions.WithLabelValues(name, fromState, toState).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(stateValue)
}

// RecordOpsRequest records one request against the ops endpoints
func RecordOpsRequest(method, path, status string, duration time.Duration) {
	OpsRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
