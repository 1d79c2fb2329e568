// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and well-formed.
func (c *Config) Validate() error {
	if err := c.validatePostSource(); err != nil {
		return err
	}
	if err := c.validateEmbedding(); err != nil {
		return err
	}
	if err := c.validateClusterSync(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateEventBus(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateConcurrency(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePostSource() error {
	if !c.PostSource.Enabled {
		return nil
	}
	if c.PostSource.BaseURL == "" {
		return fmt.Errorf("POST_SOURCE_BASE_URL is required when POST_SOURCE_ENABLED=true")
	}
	if err := validateHTTPURL(c.PostSource.BaseURL, "POST_SOURCE_BASE_URL"); err != nil {
		return err
	}
	if c.PostSource.AccountBatchSize <= 0 {
		return fmt.Errorf("post_source.account_batch_size must be positive, got %d", c.PostSource.AccountBatchSize)
	}
	if c.PostSource.InterBatchDelay < 0 {
		return fmt.Errorf("post_source.inter_batch_delay must not be negative")
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.BaseURL != "" {
		if err := validateHTTPURL(c.Embedding.BaseURL, "EMBEDDING_BASE_URL"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateClusterSync() error {
	cs := c.ClusterSync
	if cs.SimilarityThreshold <= 0 || cs.SimilarityThreshold > 1 {
		return fmt.Errorf("cluster_sync.similarity_threshold must be in (0, 1], got %f", cs.SimilarityThreshold)
	}
	if cs.MatchJaccardThreshold <= 0 || cs.MatchJaccardThreshold > 1 {
		return fmt.Errorf("cluster_sync.match_jaccard_threshold must be in (0, 1], got %f", cs.MatchJaccardThreshold)
	}
	if cs.MinIntersection < 1 {
		return fmt.Errorf("cluster_sync.min_intersection must be at least 1, got %d", cs.MinIntersection)
	}
	if cs.MinClusterSize < 1 {
		return fmt.Errorf("cluster_sync.min_cluster_size must be at least 1, got %d", cs.MinClusterSize)
	}
	if cs.MaxDaysWindow < 1 {
		return fmt.Errorf("cluster_sync.max_days_window must be at least 1, got %d", cs.MaxDaysWindow)
	}
	if cs.StaleDeactivateHours < 1 {
		return fmt.Errorf("cluster_sync.stale_deactivate_hours must be at least 1, got %d", cs.StaleDeactivateHours)
	}
	if cs.SyncLookbackHours < 1 {
		return fmt.Errorf("cluster_sync.sync_lookback_hours must be at least 1, got %d", cs.SyncLookbackHours)
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.DSN == "" {
		return fmt.Errorf("STORE_DSN is required")
	}
	if err := validatePostgresDSN(c.Store.DSN); err != nil {
		return fmt.Errorf("STORE_DSN is invalid: %w", err)
	}
	if c.Store.MaxConns < c.Store.MinConns {
		return fmt.Errorf("store.max_conns (%d) must be >= store.min_conns (%d)", c.Store.MaxConns, c.Store.MinConns)
	}
	return nil
}

func (c *Config) validateEventBus() error {
	if !c.EventBus.Enabled {
		return nil
	}
	if c.EventBus.URL == "" {
		return fmt.Errorf("EVENT_BUS_URL is required when EVENT_BUS_ENABLED=true")
	}
	if err := validateNATSURL(c.EventBus.URL); err != nil {
		return fmt.Errorf("EVENT_BUS_URL is invalid: %w", err)
	}
	if c.EventBus.MaxDeliver < 1 {
		return fmt.Errorf("event_bus.max_deliver must be at least 1, got %d", c.EventBus.MaxDeliver)
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if !c.Scheduler.Enabled {
		return nil
	}
	crons := map[string]string{
		"ingest_accounts_cron":    c.Scheduler.IngestAccountsCron,
		"ingest_keywords_cron":    c.Scheduler.IngestKeywordsCron,
		"cluster_sync_cron":       c.Scheduler.ClusterSyncCron,
		"cluster_curate_cron":     c.Scheduler.ClusterCurateCron,
		"analytics_backfill_cron": c.Scheduler.AnalyticsBackfillCron,
	}
	for name, expr := range crons {
		if strings.TrimSpace(expr) == "" {
			return fmt.Errorf("scheduler.%s is required when scheduler.enabled=true", name)
		}
	}
	return nil
}

func (c *Config) validateConcurrency() error {
	limits := map[string]int{
		"embed":            c.Concurrency.Embed,
		"cluster_review":   c.Concurrency.ClusterReview,
		"cluster_sync":     c.Concurrency.ClusterSync,
		"cluster_curate":   c.Concurrency.ClusterCurate,
		"cluster_backfill": c.Concurrency.ClusterBackfill,
	}
	for name, n := range limits {
		if n < 1 {
			return fmt.Errorf("concurrency.%s must be at least 1, got %d", name, n)
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateLogging() error {
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of trace/debug/info/warn/error/fatal/panic, got %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
