// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package config

import "time"

// Config holds all application configuration loaded from environment
// variables and an optional YAML config file.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: sensible built-in values for every optional setting
//  2. Config File: optional config.yaml for persistent settings
//  3. Environment Variables: override any setting, highest priority
//
// Config is immutable after LoadWithKoanf() and safe for concurrent read access.
type Config struct {
	PostSource    PostSourceConfig    `koanf:"post_source"`
	ScrapingProxy ScrapingProxyConfig `koanf:"scraping_proxy"`
	Embedding     EmbeddingConfig     `koanf:"embedding"`
	NormalizeLLM  NormalizeLLMConfig  `koanf:"normalize_llm"`
	VisionLLM     VisionLLMConfig     `koanf:"vision_llm"`
	CurateLLM     CurateLLMConfig     `koanf:"curate_llm"`
	ReviewLLM     ReviewLLMConfig     `koanf:"review_llm"`
	ClusterSync   ClusterSyncConfig   `koanf:"cluster_sync"`
	Store         StoreConfig         `koanf:"store"`
	EventBus      EventBusConfig      `koanf:"event_bus"`
	Scheduler     SchedulerConfig     `koanf:"scheduler"`
	Concurrency   ConcurrencyConfig   `koanf:"concurrency"`
	Server        ServerConfig        `koanf:"server"`
	Security      SecurityConfig      `koanf:"security"`
	Logging       LoggingConfig       `koanf:"logging"`
}

// PostSourceConfig holds connection settings for the upstream post source
// (author-timeline and keyword-search endpoints).
type PostSourceConfig struct {
	Enabled          bool          `koanf:"enabled"`
	BaseURL          string        `koanf:"base_url"`
	APIKey           string        `koanf:"api_key"`
	AccountBatchSize int           `koanf:"account_batch_size"` // accounts per union query, default 8
	InterBatchDelay  time.Duration `koanf:"inter_batch_delay"`  // sleep between account batches, default 5500ms
	RequestTimeout   time.Duration `koanf:"request_timeout"`

	// AuthorHandles is the curated list the author-batch worker polls,
	// partitioned into AccountBatchSize-sized union queries.
	AuthorHandles []string `koanf:"author_handles"`
	// Keywords is the fixed multi-keyword query the keyword worker issues.
	Keywords []string `koanf:"keywords"`
	// KeywordPageCount is how many pages the keyword worker paginates
	// through per run, default 2.
	KeywordPageCount int `koanf:"keyword_page_count"`
	// BlockedAccounts is loaded from configuration but read by no
	// component: posts by these handles ingest and count toward cluster
	// size and candidacy like any other.
	BlockedAccounts []string `koanf:"blocked_accounts"`
	// MaxRetryAttempts defaults to 2 but is not read by any component; no
	// retry loop in the pipeline takes its bound from this field.
	MaxRetryAttempts int `koanf:"max_retry_attempts"`
	// RequestsPerSecond caps outbound search request rate ahead of the
	// upstream's own 429 responses, default 2.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// ScrapingProxyConfig holds the fallback proxy chain used by the URL
// fetcher when a direct fetch is blocked or rate limited.
type ScrapingProxyConfig struct {
	Enabled     bool          `koanf:"enabled"`
	ProxyURLs   []string      `koanf:"proxy_urls"`
	UserAgent   string        `koanf:"user_agent"`
	FetchTimeout time.Duration `koanf:"fetch_timeout"` // default 30s
}

// EmbeddingConfig holds connection settings for the embedding provider.
type EmbeddingConfig struct {
	BaseURL    string        `koanf:"base_url"`
	APIKey     string        `koanf:"api_key"`
	Model      string        `koanf:"model"`
	Dimensions int           `koanf:"dimensions"` // default 1536
	Timeout    time.Duration `koanf:"timeout"`
}

// NormalizeLLMConfig holds connection settings for the headline/facts
// extraction LLM.
type NormalizeLLMConfig struct {
	BaseURL        string        `koanf:"base_url"`
	APIKey         string        `koanf:"api_key"`
	Model          string        `koanf:"model"`
	Timeout        time.Duration `koanf:"timeout"`
	MaxFacts       int           `koanf:"max_facts"`       // default 12
	HeadlineMaxLen int           `koanf:"headline_max_len"` // default 240
}

// VisionLLMConfig holds connection settings for the image classification
// and summarization LLM.
type VisionLLMConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

// ClusterSyncConfig holds the thresholds and windows from the closed
// configuration enumeration governing cluster-sync, cluster-curate, and
// cluster-review behavior.
type ClusterSyncConfig struct {
	SimilarityThreshold    float64       `koanf:"similarity_threshold"`     // cosine similarity floor, default 0.94
	MatchJaccardThreshold  float64       `koanf:"match_jaccard_threshold"`  // default 0.25
	MinIntersection        int           `koanf:"min_intersection"`         // default 2
	MinClusterSize         int           `koanf:"min_cluster_size"`         // default 2
	MaxDaysWindow          int           `koanf:"max_days_window"`          // embedding candidate window, default 3
	MinTweets              int           `koanf:"min_tweets"`               // default 3
	MinUsers               int           `koanf:"min_users"`                // default 2
	ReviewMinNewMembers    int           `koanf:"review_min_new_members"`   // default 5
	StaleDeactivateHours   int           `koanf:"stale_deactivate_hours"`   // default 2
	SyncLookbackHours      int           `koanf:"sync_lookback_hours"`      // default 24
	ReviewSkipRecentWindow time.Duration `koanf:"review_skip_recent_window"` // default 30m; not read: cluster-review uses its own fixed 30-minute window
}

// CurateLLMConfig holds connection settings for the cluster-duplicate-merge
// LLM.
type CurateLLMConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"` // default 60s
}

// ReviewLLMConfig holds connection settings for the per-cluster outlier
// pruning LLM.
type ReviewLLMConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"` // default 45s
}

// StoreConfig holds the relational store (Postgres + pgvector) connection.
type StoreConfig struct {
	DSN             string        `koanf:"dsn"`
	MaxConns        int32         `koanf:"max_conns"`
	MinConns        int32         `koanf:"min_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	MigrationsPath  string        `koanf:"migrations_path"`
}

// EventBusConfig holds the NATS JetStream connection used for the pipeline's
// event names.
type EventBusConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	StreamName     string        `koanf:"stream_name"`
	DurableName    string        `koanf:"durable_name"`
	QueueGroup     string        `koanf:"queue_group"`
	MaxDeliver     int           `koanf:"max_deliver"` // retry budget before DLQ, default 5
	AckWait        time.Duration `koanf:"ack_wait"`
	DLQSubject     string        `koanf:"dlq_subject"`

	// WALDir, if set, enables a BadgerDB write-ahead log: every event is
	// persisted here before the NATS publish attempt and removed once NATS
	// confirms receipt, so a crash between the two loses nothing a
	// recovery pass at startup can't replay. Left blank, publishing is
	// NATS-only, matching the embedded/dev-mode event bus.
	WALDir string `koanf:"wal_dir"`
}

// SchedulerConfig holds the cron expressions for the five scheduled jobs.
// Field names match the job names registered with internal/scheduler.
type SchedulerConfig struct {
	Enabled                  bool   `koanf:"enabled"`
	IngestAccountsCron       string `koanf:"ingest_accounts_cron"`
	IngestKeywordsCron       string `koanf:"ingest_keywords_cron"`
	ClusterSyncCron          string `koanf:"cluster_sync_cron"`
	ClusterCurateCron        string `koanf:"cluster_curate_cron"`
	AnalyticsBackfillCron    string `koanf:"analytics_backfill_cron"`
	Timezone                 string `koanf:"timezone"`
}

// ConcurrencyConfig holds the per-function semaphore sizes from the
// concurrency and resource model.
type ConcurrencyConfig struct {
	Embed            int `koanf:"embed"`             // default 5
	ClusterReview    int `koanf:"cluster_review"`     // default 3
	ClusterSync      int `koanf:"cluster_sync"`       // default 1
	ClusterCurate    int `koanf:"cluster_curate"`     // default 1
	ClusterBackfill  int `koanf:"cluster_backfill"`   // default 1
}

// ServerConfig holds HTTP server settings for the operator/story API.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds rate limiting, CORS, and admin-auth settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	AdminBearerToken  string        `koanf:"admin_bearer_token"`

	// ReviewerBearerToken, if set, grants a lower-privilege "reviewer" role
	// (internal/authz) that may trigger review/curate but not backfill.
	// Left blank, only AdminBearerToken's full-access "admin" role works.
	ReviewerBearerToken string `koanf:"reviewer_bearer_token"`
}

// LoggingConfig holds structured logging output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "json" or "console"
}
