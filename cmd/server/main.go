// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package main is the entry point for the newsclust pipeline server.
//
// newsclust ingests posts from author and keyword searches, enriches them
// with fetched URL content and image classification, normalizes them into
// a headline and fact list via an LLM, embeds the normalized headline,
// reconciles embedding-similarity clusters against a persistent cluster
// store, and periodically merges duplicate clusters and prunes outliers
// within them. A small HTTP API serves the resulting story read model and
// accepts reader feedback and operator-triggered off-cycle runs.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: load settings from environment variables and an
//     optional config file (Koanf v2).
//  2. Store: open the Postgres+pgvector connection pool and apply pending
//     migrations.
//  3. Event bus: connect to NATS JetStream (or start an embedded server)
//     and build the publisher and per-topic subscribers.
//  4. Pipeline stages: ingest, enrich, normalize, embed, cluster-sync,
//     cluster-curate, cluster-review.
//  5. Scheduler: register the five cron jobs plus the two enrichment
//     sweep jobs.
//  6. HTTP API: the story read model, feedback routes, health, and the
//     bearer-gated operator trigger routes.
//  7. Supervisor tree: every long-running piece above is supervised so a
//     panic or a returned error in one restarts only that piece.
//
// # Signal handling
//
// SIGINT and SIGTERM cancel the root context, which the supervisor tree
// turns into an ordered graceful shutdown of every supervised service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/api"
	"github.com/tomtom215/newsclust/internal/cluster/curate"
	"github.com/tomtom215/newsclust/internal/cluster/review"
	"github.com/tomtom215/newsclust/internal/cluster/sync"
	"github.com/tomtom215/newsclust/internal/concurrency"
	"github.com/tomtom215/newsclust/internal/config"
	"github.com/tomtom215/newsclust/internal/embed"
	"github.com/tomtom215/newsclust/internal/enrich/urlfetch"
	"github.com/tomtom215/newsclust/internal/enrich/vision"
	"github.com/tomtom215/newsclust/internal/eventbus"
	"github.com/tomtom215/newsclust/internal/ingest"
	"github.com/tomtom215/newsclust/internal/llm"
	"github.com/tomtom215/newsclust/internal/logging"
	"github.com/tomtom215/newsclust/internal/normalize"
	"github.com/tomtom215/newsclust/internal/runstatus"
	"github.com/tomtom215/newsclust/internal/scheduler"
	"github.com/tomtom215/newsclust/internal/search"
	"github.com/tomtom215/newsclust/internal/store/pgstore"
	"github.com/tomtom215/newsclust/internal/supervisor"
	"github.com/tomtom215/newsclust/internal/supervisor/services"
)

// enrichTickInterval is the cron cadence for the URL/image enrichment
// sweeps. Unlike the five named jobs in config.SchedulerConfig, these are
// not part of the configuration enumeration spec names: spec.md leaves
// their cadence an implementation detail ("for each post-url with null
// content"), so a fixed one-minute sweep is used here.
const enrichTickInterval = "* * * * *"

//nolint:gocyclo // sequential wiring, mirrors the teacher's main
func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Timestamp: true,
	})
	logger := logging.Logger()

	logging.Info().Msg("starting newsclust with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := pgstore.New(ctx, pgstore.Config{
		DSN:             cfg.Store.DSN,
		MaxConns:        cfg.Store.MaxConns,
		MinConns:        cfg.Store.MinConns,
		MaxConnLifetime: cfg.Store.ConnMaxLifetime,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()
	logging.Info().Msg("store connection pool ready")

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	busURL := cfg.EventBus.URL
	if cfg.EventBus.EmbeddedServer {
		embedded, err := eventbus.NewEmbeddedServer(cfg.EventBus.StoreDir)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to start embedded event bus")
		}
		defer embedded.Shutdown()
		busURL = embedded.ClientURL()
		logging.Info().Str("url", busURL).Msg("embedded event bus started")
	}

	wmLogger := watermill.NewStdLogger(false, false)

	pubCfg := eventbus.DefaultPublisherConfig(busURL)
	publisher, err := eventbus.NewPublisher(pubCfg, wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect event bus publisher")
	}
	defer publisher.Close()

	if cfg.EventBus.WALDir != "" {
		wal, err := eventbus.OpenWAL(cfg.EventBus.WALDir)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to open event bus wal")
		}
		defer wal.Close()

		pending, err := wal.Pending()
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to read event bus wal for recovery")
		}
		for _, event := range pending {
			if err := publisher.PublishEvent(ctx, event); err != nil {
				logging.Error().Err(err).Str("event_id", event.ID).Msg("wal recovery replay failed, will retry on next startup")
				continue
			}
			logging.Info().Str("event_id", event.ID).Msg("replayed unconfirmed event from wal")
		}

		publisher.SetWAL(wal)
		logging.Info().Str("dir", cfg.EventBus.WALDir).Int("replayed", len(pending)).Msg("event bus wal enabled")
	}

	subCfg := eventbus.DefaultSubscriberConfig(busURL, cfg.EventBus.DurableName, cfg.EventBus.StreamName)
	subCfg.QueueGroup = cfg.EventBus.QueueGroup
	subCfg.MaxDeliver = cfg.EventBus.MaxDeliver
	if cfg.EventBus.AckWait > 0 {
		subCfg.AckWaitTimeout = cfg.EventBus.AckWait
	}
	subscriber, err := eventbus.NewSubscriber(subCfg, wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect event bus subscriber")
	}
	defer subscriber.Close()
	logging.Info().Str("url", busURL).Msg("event bus connected")

	dlqCfg := eventbus.DefaultDLQConfig()
	dlq, err := eventbus.NewDLQHandler(dlqCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create DLQ handler")
	}

	limits := concurrency.NewLimits(
		cfg.Concurrency.Embed,
		cfg.Concurrency.ClusterReview,
		cfg.Concurrency.ClusterSync,
		cfg.Concurrency.ClusterCurate,
		cfg.Concurrency.ClusterBackfill,
	)

	// === Pipeline stages ===

	searchClient := search.NewClient(cfg.PostSource)

	embedClient := embed.New(cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions, cfg.Embedding.Timeout)
	embedWorker := embed.NewWorker(embedClient, st, logger, 50)

	normalizeClient := llm.New(cfg.NormalizeLLM.BaseURL, cfg.NormalizeLLM.APIKey, cfg.NormalizeLLM.Timeout)
	normalizeWorker := normalize.NewWorker(normalizeClient, normalize.Options{
		Model:          cfg.NormalizeLLM.Model,
		MaxFacts:       cfg.NormalizeLLM.MaxFacts,
		HeadlineMaxLen: cfg.NormalizeLLM.HeadlineMaxLen,
	}, st, logger)

	visionClient := llm.New(cfg.VisionLLM.BaseURL, cfg.VisionLLM.APIKey, cfg.VisionLLM.Timeout)
	visionWorker := vision.NewWorker(visionClient, cfg.VisionLLM.Model, st, logger, 25)

	urlFetcher, err := urlfetch.New(cfg.ScrapingProxy)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build URL fetcher")
	}
	urlWorker := urlfetch.NewWorker(urlFetcher, st, logger, 25)

	preprocessWorker := preprocessWorkerFor(normalizeWorker, embedWorker, limits.Embed, logger)

	curateClient := llm.New(cfg.CurateLLM.BaseURL, cfg.CurateLLM.APIKey, cfg.CurateLLM.Timeout)
	curateWorker := curate.NewWorker(st, curateClient, cfg.CurateLLM.Model, cfg.ClusterSync.MinTweets, cfg.ClusterSync.MinUsers, logger)

	reviewClient := llm.New(cfg.ReviewLLM.BaseURL, cfg.ReviewLLM.APIKey, cfg.ReviewLLM.Timeout)
	reviewWorker := review.NewWorker(st, reviewClient, cfg.ReviewLLM.Model, cfg.ClusterSync.MinTweets, cfg.ClusterSync.MinUsers, logger)

	syncer := sync.NewSyncer(st, st, publisher, limits.ClusterSync, sync.Params{
		SimilarityThreshold:    cfg.ClusterSync.SimilarityThreshold,
		MatchJaccardThreshold:  cfg.ClusterSync.MatchJaccardThreshold,
		MinIntersection:        cfg.ClusterSync.MinIntersection,
		MinClusterSize:         cfg.ClusterSync.MinClusterSize,
		MaxDaysWindow:          cfg.ClusterSync.MaxDaysWindow,
		MinTweets:              cfg.ClusterSync.MinTweets,
		MinUsers:               cfg.ClusterSync.MinUsers,
		ReviewMinNewMembers:    cfg.ClusterSync.ReviewMinNewMembers,
		StaleDeactivateHours:   cfg.ClusterSync.StaleDeactivateHours,
		SyncLookbackHours:      cfg.ClusterSync.SyncLookbackHours,
	}, logger)

	authorWorker := ingest.NewAuthorBatchWorker(searchClient, st, publisher, logger, cfg.PostSource.AuthorHandles, cfg.PostSource.AccountBatchSize, cfg.PostSource.InterBatchDelay)
	keywordWorker := ingest.NewKeywordWorker(searchClient, st, publisher, logger, cfg.PostSource.Keywords, cfg.PostSource.KeywordPageCount)

	// === Event bus wiring: one handler per topic, each DLQ-wrapped ===

	rawHandlers := map[eventbus.Topic]eventbus.EventHandlerFunc{
		eventbus.TopicPostIngested:             preprocessWorker.Handle,
		eventbus.TopicPostPreprocess:            preprocessWorker.Handle,
		eventbus.TopicClusterReviewRequested:    reviewEventHandler(reviewWorker),
		eventbus.TopicClusterBackfillRequested:  backfillEventHandler(st, publisher, logger),
	}

	for topic, fn := range rawHandlers {
		handler := subscriber.NewEventHandler(topic).Handle(eventbus.WithDLQ(fn, dlq))
		tree.AddEventBusService(services.NewEventBusService(handler, string(topic)))
	}

	retryHandler := func(entry *eventbus.DLQEntry) error {
		fn, ok := rawHandlers[entry.Event.Topic]
		if !ok {
			return fmt.Errorf("dlq: no handler registered for topic %q", entry.Event.Topic)
		}
		return fn(ctx, entry.Event)
	}
	autoRetry := eventbus.NewAutoRetryWorker(dlq, retryHandler, eventbus.DefaultAutoRetryConfig())
	tree.AddEventBusService(autoRetry)

	// === Scheduler: the five named cron jobs plus the two enrichment sweeps ===

	recorder := runstatus.NewRecorder(st, logger)
	sched := scheduler.NewScheduler(recorder, logger, scheduler.DefaultConfig())

	registerJob(sched, scheduler.Job{
		Name:     "ingest-accounts",
		CronExpr: cfg.Scheduler.IngestAccountsCron,
		Timezone: cfg.Scheduler.Timezone,
		Timeout:  5 * time.Minute,
		Fn:       authorWorker.Run,
	})
	registerJob(sched, scheduler.Job{
		Name:     "ingest-keywords",
		CronExpr: cfg.Scheduler.IngestKeywordsCron,
		Timezone: cfg.Scheduler.Timezone,
		Timeout:  5 * time.Minute,
		Fn:       keywordWorker.Run,
	})
	registerJob(sched, scheduler.Job{
		Name:     "cluster-sync",
		CronExpr: cfg.Scheduler.ClusterSyncCron,
		Timezone: cfg.Scheduler.Timezone,
		Timeout:  10 * time.Minute,
		Fn:       syncer.Run,
	})
	registerJob(sched, scheduler.Job{
		Name:     "cluster-curate",
		CronExpr: cfg.Scheduler.ClusterCurateCron,
		Timezone: cfg.Scheduler.Timezone,
		Timeout:  10 * time.Minute,
		Fn:       curateWorker.Run,
	})
	// analytics-backfill is an explicit boundary stub: the operator's own
	// post analytics backfill is an external collaborator this pipeline
	// never implements (see DESIGN.md). The slot is still registered so
	// its run history shows up in /internal/health like every other job.
	registerJob(sched, scheduler.Job{
		Name:     "analytics-backfill",
		CronExpr: cfg.Scheduler.AnalyticsBackfillCron,
		Timezone: cfg.Scheduler.Timezone,
		Timeout:  2 * time.Minute,
		Fn: func(ctx context.Context) error {
			logger.Debug().Msg("analytics-backfill: external collaborator, no-op in this module")
			return nil
		},
	})
	registerJob(sched, scheduler.Job{
		Name:     "enrich-url",
		CronExpr: enrichTickInterval,
		Timeout:  2 * time.Minute,
		Fn:       urlWorker.Run,
	})
	registerJob(sched, scheduler.Job{
		Name:     "enrich-image",
		CronExpr: enrichTickInterval,
		Timeout:  2 * time.Minute,
		Fn:       visionWorker.Run,
	})

	tree.AddWorkerService(services.NewSchedulerService(sched))

	// === HTTP API ===

	handler := api.NewHandler(st, reviewWorker, curateWorker, publisher, logger)
	routerCfg := api.DefaultRouterConfig()
	routerCfg.CORSAllowedOrigins = cfg.Security.CORSOrigins
	routerCfg.OperatorToken = cfg.Security.AdminBearerToken
	routerCfg.ReviewerToken = cfg.Security.ReviewerBearerToken
	if cfg.Security.RateLimitRequests > 0 {
		routerCfg.RateLimitRequests = cfg.Security.RateLimitRequests
	}
	if cfg.Security.RateLimitWindow > 0 {
		routerCfg.RateLimitWindow = cfg.Security.RateLimitWindow
	}

	router, err := api.NewRouter(handler, routerCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build http router")
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	tree.AddAPIService(services.NewHTTPServerService(httpServer, shutdownTimeout))
	logging.Info().Str("addr", httpServer.Addr).Msg("HTTP server service added")

	// === Start supervisor tree ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
	}

	logging.Info().Msg("newsclust stopped gracefully")
}

// registerJob logs and exits on a registration failure rather than
// silently running without one of the five named jobs.
func registerJob(sched *scheduler.Scheduler, job scheduler.Job) {
	if err := sched.Register(job); err != nil {
		logging.Fatal().Err(err).Str("job", job.Name).Msg("failed to register scheduled job")
	}
}

// reviewEventHandler adapts review.Worker.ReviewOne to eventbus.EventHandlerFunc.
func reviewEventHandler(w *review.Worker) eventbus.EventHandlerFunc {
	return func(ctx context.Context, event *eventbus.Event) error {
		payload, err := eventbus.DecodeClusterReviewPayload(event)
		if err != nil {
			return nil
		}
		return w.ReviewOne(ctx, payload.ClusterID)
	}
}

// backfillEventHandler adapts ingest.RunBackfill to eventbus.EventHandlerFunc.
func backfillEventHandler(st ingest.EmbeddingBackfillStore, publisher *eventbus.Publisher, logger zerolog.Logger) eventbus.EventHandlerFunc {
	return func(ctx context.Context, event *eventbus.Event) error {
		payload, err := eventbus.DecodeClusterBackfillPayload(event)
		if err != nil {
			return nil
		}
		_, err = ingest.RunBackfill(ctx, st, publisher, logger, payload)
		return err
	}
}
