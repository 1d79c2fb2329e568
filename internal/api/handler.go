// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package api

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/cache"
	"github.com/tomtom215/newsclust/internal/cluster/curate"
	"github.com/tomtom215/newsclust/internal/cluster/review"
	"github.com/tomtom215/newsclust/internal/eventbus"
	"github.com/tomtom215/newsclust/internal/story"
	"github.com/tomtom215/newsclust/internal/store"
)

// storiesCacheTTL bounds how stale a cached /api/v1/stories response can be.
// Clusters reconcile on a multi-minute cron cadence (internal/scheduler), so
// a cache this short never serves a response older than the pipeline's own
// update cycle.
const storiesCacheTTL = 30 * time.Second

// storiesCacheCapacity bounds distinct (lookback_hours, limit,
// story_candidates_only) query shapes kept warm at once; most callers use
// the defaults, so a handful of entries covers nearly all request volume.
const storiesCacheCapacity = 64

// EventPublisher is the subset of eventbus.Publisher the API depends on, so
// operator-triggered backfill can hand off to the same event bus the
// pipeline runs on instead of running the backfill query inline on the
// request goroutine.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *eventbus.Event) error
}

// Handler holds every dependency the HTTP routes need: the store for
// reads/writes, the review and curate workers for operator-triggered runs,
// the event bus publisher for operator-triggered backfill, and a logger.
type Handler struct {
	store             store.Store
	reviewWorker      *review.Worker
	curateWorker      *curate.Worker
	backfillPublisher EventPublisher
	healthLimit       int
	logger            zerolog.Logger

	// storiesCache holds recent story.Read results keyed by query shape.
	// Repeated polling from the same dashboard or reader session re-requests
	// the same (or default) query shape far more often than the underlying
	// clusters change, so an LFU eviction policy keeps the handful of
	// popular shapes warm over one-off queries rather than aging everything
	// out uniformly the way a plain LRU would.
	storiesCache *cache.LFUCache
}

// NewHandler builds a Handler.
func NewHandler(st store.Store, reviewWorker *review.Worker, curateWorker *curate.Worker, backfillPublisher EventPublisher, logger zerolog.Logger) *Handler {
	return &Handler{
		store:             st,
		reviewWorker:      reviewWorker,
		curateWorker:      curateWorker,
		backfillPublisher: backfillPublisher,
		healthLimit:       200,
		logger:            logger.With().Str("component", "api").Logger(),
		storiesCache:      cache.NewLFUCache(storiesCacheCapacity, storiesCacheTTL),
	}
}

// storiesCacheKey derives a cache key from the parsed query parameters so
// distinct query shapes never collide.
func storiesCacheKey(p story.Params) string {
	return fmt.Sprintf("%.4f:%d:%t", p.LookbackHours, p.Limit, p.OnlyStoryCandidates)
}
