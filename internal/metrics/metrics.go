// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package instruments:
//   - Store query performance (Postgres + pgvector)
//   - HTTP endpoint latency and throughput
//   - Pipeline stage throughput (ingest, enrich, normalize, embed, cluster)
//   - Event bus publish/consume/DLQ activity
//   - Circuit breaker state for every external collaborator
//   - Cache efficiency

var (
	// Store Metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_query_duration_seconds",
			Help:    "Duration of store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_query_errors_total",
			Help: "Total number of store query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	StoreConnectionPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_connection_pool_size",
			Help: "Current number of store connections in use",
		},
	)

	// HTTP Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Pipeline Stage Metrics
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duration of a pipeline stage invocation in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 180, 600},
		},
		[]string{"stage"}, // ingest, enrich, normalize, embed, cluster_sync, cluster_curate, cluster_review
	)

	PipelineStageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_errors_total",
			Help: "Total number of pipeline stage errors by taxonomy class",
		},
		[]string{"stage", "error_class"}, // transient, permanent, state_conflict, invariant, fatal
	)

	PostsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_ingested_total",
			Help: "Total number of posts ingested",
		},
		[]string{"source"}, // account, keyword
	)

	PostsSkippedDuplicate = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "posts_skipped_duplicate_total",
			Help: "Total number of posts skipped because they already exist",
		},
	)

	PostsFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_filtered_total",
			Help: "Total number of posts suppressed by the promo or low-information filters",
		},
		[]string{"reason"}, // promo, low_information
	)

	EmbeddingsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embeddings_generated_total",
			Help: "Total number of post embeddings generated",
		},
	)

	ClusterCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_cluster_count",
			Help: "Current number of active clusters",
		},
	)

	ClustersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clusters_created_total",
			Help: "Total number of clusters created during sync",
		},
	)

	ClustersMerged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clusters_merged_total",
			Help: "Total number of directional cluster merges performed during curation",
		},
	)

	ClustersDeactivated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clusters_deactivated_total",
			Help: "Total number of clusters deactivated for staleness",
		},
	)

	StoryCandidateCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "story_candidate_count",
			Help: "Current number of clusters surfaced as story candidates",
		},
	)

	// Cache Metrics (General)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // ingest_dedupe, curate_token_index
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
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
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Dead Letter Queue Metrics
	DLQEntriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlq_entries_total",
			Help: "Current number of entries in the dead letter queue",
		},
	)

	DLQEntriesByEvent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dlq_entries_by_event",
			Help: "Current number of DLQ entries by event name",
		},
		[]string{"event"},
	)

	DLQMessagesAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dlq_messages_added_total",
			Help: "Total number of messages added to the DLQ",
		},
	)

	DLQMessagesRetried = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlq_messages_retried_total",
			Help: "Total number of DLQ retry attempts and their outcome",
		},
		[]string{"result"}, // success, failure
	)

	// Event Bus Metrics
	EventBusMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_bus_messages_published_total",
			Help: "Total number of messages published to the event bus",
		},
		[]string{"event"},
	)

	EventBusMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_bus_messages_consumed_total",
			Help: "Total number of messages consumed from the event bus",
		},
		[]string{"event"},
	)

	EventBusMessagesDeduplicated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_bus_messages_deduplicated_total",
			Help: "Total number of messages reported as skipped duplicates via RecordEventDeduplicated",
		},
		[]string{"event"},
	)

	EventBusProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "event_bus_processing_duration_seconds",
			Help:    "Duration of event handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event"},
	)

	EventBusConsumerLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_bus_consumer_lag",
			Help: "Number of pending messages in the event bus consumer",
		},
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

// RecordStoreQuery records a store query metric.
func RecordStoreQuery(operation, table string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		StoreQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active-request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPipelineStage records a pipeline stage invocation outcome.
func RecordPipelineStage(stage string, duration time.Duration, errorClass string) {
	PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if errorClass != "" {
		PipelineStageErrors.WithLabelValues(stage, errorClass).Inc()
	}
}

// RecordDLQEntry records a message being added to the DLQ.
func RecordDLQEntry(event string) {
	DLQMessagesAdded.Inc()
	DLQEntriesByEvent.WithLabelValues(event).Inc()
}

// RecordDLQRemoval records a message leaving the DLQ, either retried
// successfully or expired.
func RecordDLQRemoval(event string) {
	DLQEntriesByEvent.WithLabelValues(event).Dec()
}

// RecordDLQRetry records a retry attempt and its outcome.
func RecordDLQRetry(success bool) {
	if success {
		DLQMessagesRetried.WithLabelValues("success").Inc()
	} else {
		DLQMessagesRetried.WithLabelValues("failure").Inc()
	}
}

// UpdateDLQGauges updates DLQ gauge metrics with current counts.
func UpdateDLQGauges(totalEntries int64, entriesByEvent map[string]int64) {
	DLQEntriesTotal.Set(float64(totalEntries))
	for event, count := range entriesByEvent {
		DLQEntriesByEvent.WithLabelValues(event).Set(float64(count))
	}
}

// RecordEventPublished records a message published to the event bus.
func RecordEventPublished(event string) {
	EventBusMessagesPublished.WithLabelValues(event).Inc()
}

// RecordEventConsumed records a message consumed from the event bus.
func RecordEventConsumed(event string, duration time.Duration) {
	EventBusMessagesConsumed.WithLabelValues(event).Inc()
	EventBusProcessingDuration.WithLabelValues(event).Observe(duration.Seconds())
}

// RecordEventDeduplicated increments EventBusMessagesDeduplicated for event.
// No component in this module calls it: internal/eventbus does not
// deduplicate messages, so the counter stays at zero in a running server.
func RecordEventDeduplicated(event string) {
	EventBusMessagesDeduplicated.WithLabelValues(event).Inc()
}

// UpdateEventBusConsumerLag updates the event bus consumer lag gauge.
func UpdateEventBusConsumerLag(lag int64) {
	EventBusConsumerLag.Set(float64(lag))
}
