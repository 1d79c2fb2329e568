// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements application instrumentation using the Prometheus client
library, exposing metrics for monitoring pipeline throughput, latency, errors,
and system health.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - Store (Postgres/pgvector) query performance
  - Pipeline stage throughput (ingest, enrich, normalize, embed, cluster)
  - Event bus publish/consume/dedup activity and DLQ depth
  - Circuit breaker state transitions
  - Cache hit/miss rates

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

HTTP Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: Active requests (gauge)
  - api_rate_limit_hits_total: Rejected requests (counter)
    Labels: endpoint

Store Metrics:
  - store_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - store_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type
  - store_connection_pool_size: Active connections (gauge)

Pipeline Metrics:
  - pipeline_stage_duration_seconds: Stage invocation duration (histogram)
    Labels: stage (ingest, enrich, normalize, embed, cluster_sync, cluster_curate, cluster_review)
  - pipeline_stage_errors_total: Stage errors by taxonomy class (counter)
    Labels: stage, error_class (transient, permanent, state_conflict, invariant, fatal)
  - posts_ingested_total: Posts ingested (counter)
    Labels: source (account, keyword)
  - posts_skipped_duplicate_total: Posts skipped as already known (counter)
  - posts_filtered_total: Posts suppressed by a filter (counter)
    Labels: reason (promo, low_information)
  - embeddings_generated_total: Post embeddings generated (counter)
  - active_cluster_count: Current active clusters (gauge)
  - clusters_created_total: Clusters created during sync (counter)
  - clusters_merged_total: Directional merges performed during curation (counter)
  - clusters_deactivated_total: Clusters deactivated for staleness (counter)
  - story_candidate_count: Clusters surfaced as story candidates (gauge)

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Request outcomes (counter)
    Labels: name, result
  - circuit_breaker_consecutive_failures: Current streak (gauge)
    Labels: name
  - circuit_breaker_state_transitions_total: Transition counts (counter)
    Labels: name, from_state, to_state

Dead Letter Queue Metrics:
  - dlq_entries_total: Current DLQ size (gauge)
  - dlq_entries_by_event: Current DLQ size by event name (gauge)
    Labels: event
  - dlq_messages_added_total: Messages added to the DLQ (counter)
  - dlq_messages_retried_total: Retry attempts and outcomes (counter)
    Labels: result (success, failure)

Event Bus Metrics:
  - event_bus_messages_published_total: Messages published (counter)
    Labels: event
  - event_bus_messages_consumed_total: Messages consumed (counter)
    Labels: event
  - event_bus_messages_deduplicated_total: Messages reported as duplicates (counter; no component records it, so it stays at zero)
    Labels: event
  - event_bus_processing_duration_seconds: Handler duration (histogram)
    Labels: event
  - event_bus_consumer_lag: Pending messages in the consumer (gauge)

Cache Metrics:
  - cache_hits_total / cache_misses_total: Counter, labeled by cache_type
  - cache_entries: Current cached entry count (gauge), labeled by cache_type

# Usage Example

Basic setup in main.go:

	import (
	    "github.com/tomtom215/newsclust/internal/metrics"
	    "github.com/prometheus/client_golang/prometheus/promhttp"
	)

	func main() {
	    http.Handle("/metrics", promhttp.Handler())

	    metrics.RecordAPIRequest("GET", "/v1/stories", "200", 23*time.Millisecond)
	    metrics.RecordStoreQuery("select", "clusters", 5*time.Millisecond, nil)
	    metrics.RecordPipelineStage("cluster_sync", 1200*time.Millisecond, "")
	}

Recording HTTP metrics with middleware:

	func MetricsMiddleware(next http.Handler) http.Handler {
	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	        start := time.Now()
	        rw := &responseWriter{ResponseWriter: w, statusCode: 200}
	        next.ServeHTTP(rw, r)
	        duration := time.Since(start)
	        metrics.RecordAPIRequest(r.Method, r.URL.Path, strconv.Itoa(rw.statusCode), duration)
	    })
	}

# Prometheus Configuration

Example prometheus.yml configuration:

	scrape_configs:
	  - job_name: 'newsclust'
	    static_configs:
	      - targets: ['localhost:8080']
	    metrics_path: '/metrics'
	    scrape_interval: 15s

Example PromQL queries:

	# API p95 latency
	histogram_quantile(0.95, rate(api_request_duration_seconds_bucket[5m]))

	# Cluster-sync error rate
	rate(pipeline_stage_errors_total{stage="cluster_sync"}[5m])

	# Event bus dedup ratio
	sum(rate(event_bus_messages_deduplicated_total[5m])) / sum(rate(event_bus_messages_consumed_total[5m]))

	# Cache hit rate
	sum(rate(cache_hits_total[5m])) / (sum(rate(cache_hits_total[5m])) + sum(rate(cache_misses_total[5m])))

# Thread Safety

All metric recording functions are thread-safe and designed for concurrent use
from multiple goroutines. The Prometheus client library handles synchronization
internally.

# Cardinality Management

  - Endpoint labels are normalized (no query parameters)
  - Error types on store queries are truncated to 50 characters
  - Pipeline stage and error_class labels are drawn from small fixed sets

# See Also

  - internal/middleware: HTTP middleware with metrics integration
  - internal/store: store query metrics recording
  - internal/eventbus: event bus publish/consume/DLQ metrics recording
  - https://prometheus.io/docs/practices/naming/: Metric naming conventions
*/
package metrics
