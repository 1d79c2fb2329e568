// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

/*
Package config provides centralized configuration management for the
ingest/enrich/normalize/embed/cluster pipeline.

This package handles loading, validation, and parsing of configuration for
every pipeline stage and ambient service. It ensures consistent settings
across the scheduler, event bus, store, and HTTP surface, with sensible
defaults for everything optional.

# Configuration Sources

Configuration loads from, in increasing priority:
  - Built-in defaults
  - An optional config.yaml (or CONFIG_PATH override)
  - Environment variables

# Configuration Structure

  - PostSourceConfig: upstream post source connection and batching
  - ScrapingProxyConfig: URL-fetch proxy fallback chain
  - EmbeddingConfig: embedding provider connection
  - NormalizeLLMConfig: headline/facts extraction LLM connection
  - VisionLLMConfig: image classification LLM connection
  - ClusterSyncConfig: the closed threshold/window enumeration governing
    cluster-sync
  - CurateLLMConfig, ReviewLLMConfig: the LLM connections backing
    cluster-curate's duplicate merge calls and cluster-review's
    outlier-pruning calls
  - StoreConfig: Postgres + pgvector connection
  - EventBusConfig: NATS JetStream connection and DLQ routing
  - SchedulerConfig: cron expressions for the five scheduled jobs
  - ConcurrencyConfig: per-function semaphore sizes
  - ServerConfig: HTTP server bind address and timeouts
  - SecurityConfig: CORS, rate limiting, admin and reviewer bearer tokens
    (internal/authz maps these to "admin"/"reviewer" roles)
  - LoggingConfig: structured logging level and format

# Usage Example

	import "github.com/tomtom215/newsclust/internal/config"

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatalf("failed to load config: %v", err)
	}

	fmt.Printf("listening on %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("cluster-sync threshold: %f\n", cfg.ClusterSync.SimilarityThreshold)

# Validation

Validate() checks required fields and value ranges:

  - STORE_DSN must be a valid postgres:// URL
  - EVENT_BUS_URL must be a valid nats:// URL when the event bus is enabled
  - cluster_sync thresholds must fall in (0, 1]
  - every concurrency.* value must be at least 1
  - every scheduler cron expression must be non-empty when the scheduler is
    enabled

# Thread Safety

Config is immutable after LoadWithKoanf() returns, making it safe for
concurrent access from multiple goroutines without synchronization.
*/
package config
