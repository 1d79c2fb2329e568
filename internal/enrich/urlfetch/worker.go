// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package urlfetch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/cache"
	"github.com/tomtom215/newsclust/internal/metrics"
	"github.com/tomtom215/newsclust/internal/store"
)

// recentlyFailedURLs short-circuits a refetch of a URL that failed every
// proxy tier in the last 10 minutes, the way the same article link
// reappears across many posts within a short ingest window. A hit stores
// the error sentinel for the row without fetching, so a bloom false
// positive resolves that row as failed even if its URL would have fetched.
var recentlyFailedURLs cache.DeduplicationCache = cache.NewBloomLRU(20000, 10*time.Minute, 0.01)

// PendingURLStore is the subset of store.PostStore the URL worker depends
// on.
type PendingURLStore interface {
	PendingPostURLs(ctx context.Context, limit int) ([]store.PostURL, error)
	SetPostURLContent(ctx context.Context, id int64, content, rawHTML string) error
}

// Worker drains pending post-URLs through the Fetcher, storing readable
// content (or a failure sentinel) so every row is resolved exactly once.
type Worker struct {
	fetcher *Fetcher
	store   PendingURLStore
	logger  zerolog.Logger
	limit   int
}

// NewWorker builds a Worker, polling up to limit pending rows per run.
func NewWorker(fetcher *Fetcher, st PendingURLStore, logger zerolog.Logger, limit int) *Worker {
	if limit <= 0 {
		limit = 50
	}
	return &Worker{fetcher: fetcher, store: st, logger: logger, limit: limit}
}

// Run fetches and stores content for every pending post-URL it can claim
// this tick, skipping hosts never meant to be stored.
func (w *Worker) Run(ctx context.Context) error {
	pending, err := w.store.PendingPostURLs(ctx, w.limit)
	if err != nil {
		return err
	}

	for _, row := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.processOne(ctx, row)
	}
	return nil
}

func (w *Worker) processOne(ctx context.Context, row store.PostURL) {
	start := time.Now()

	if shouldSkip(row.URL) {
		metrics.RecordPipelineStage("enrich_url_skip", time.Since(start), "")
		return
	}

	if recentlyFailedURLs.Contains(row.URL) {
		if storeErr := w.store.SetPostURLContent(ctx, row.ID, ErrorSentinel(fmt.Errorf("url failed recently, skipping refetch")), ""); storeErr != nil {
			w.logger.Warn().Err(storeErr).Int64("post_url_id", row.ID).Msg("urlfetch: store error sentinel failed")
		}
		metrics.RecordPipelineStage("enrich_url", time.Since(start), "recently_failed")
		return
	}

	result, err := w.fetcher.Fetch(ctx, row.URL)
	if err != nil {
		recentlyFailedURLs.Record(row.URL)
		errClass := "transient"
		if storeErr := w.store.SetPostURLContent(ctx, row.ID, ErrorSentinel(err), ""); storeErr != nil {
			w.logger.Warn().Err(storeErr).Int64("post_url_id", row.ID).Msg("urlfetch: store error sentinel failed")
		}
		metrics.RecordPipelineStage("enrich_url", time.Since(start), errClass)
		return
	}

	if storeErr := w.store.SetPostURLContent(ctx, row.ID, result.Content, result.RawHTML); storeErr != nil {
		w.logger.Warn().Err(storeErr).Int64("post_url_id", row.ID).Msg("urlfetch: store content failed")
		metrics.RecordPipelineStage("enrich_url", time.Since(start), "transient")
		return
	}

	metrics.RecordPipelineStage("enrich_url", time.Since(start), "")
}
