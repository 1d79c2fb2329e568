// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/search"
)

// Searcher is the subset of search.Client used by ingest workers.
type Searcher interface {
	SearchByQuery(ctx context.Context, query, cursor string) (search.SearchPage, error)
}

// AuthorBatchWorker polls a curated list of author handles in fixed-size
// union-query batches, every 15 minutes per the configured cron.
type AuthorBatchWorker struct {
	searcher        Searcher
	store           PostStore
	publisher       Publisher
	logger          zerolog.Logger
	handles         []string
	batchSize       int
	interBatchDelay time.Duration
}

// NewAuthorBatchWorker builds an AuthorBatchWorker. batchSize and
// interBatchDelay come from config.PostSourceConfig.
func NewAuthorBatchWorker(searcher Searcher, st PostStore, publisher Publisher, logger zerolog.Logger, handles []string, batchSize int, interBatchDelay time.Duration) *AuthorBatchWorker {
	if batchSize <= 0 {
		batchSize = 8
	}
	return &AuthorBatchWorker{
		searcher:        searcher,
		store:           st,
		publisher:       publisher,
		logger:          logger,
		handles:         handles,
		batchSize:       batchSize,
		interBatchDelay: interBatchDelay,
	}
}

// Run partitions the handle list into batches, issues one union query per
// batch sequentially with an inter-batch delay, records failed batches
// without aborting the run, and ingests everything accumulated.
func (w *AuthorBatchWorker) Run(ctx context.Context) error {
	if len(w.handles) == 0 {
		return nil
	}

	var accumulated []search.RawPost
	var batchFailures int

	batches := partitionHandles(w.handles, w.batchSize)
	for i, batch := range batches {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		query := unionQuery(batch)
		page, err := w.searcher.SearchByQuery(ctx, query, "")
		if err != nil {
			batchFailures++
			w.logger.Warn().Err(err).Strs("handles", batch).Msg("ingest: author batch failed")
		} else {
			accumulated = append(accumulated, page.Posts...)
		}

		if i < len(batches)-1 {
			select {
			case <-time.After(w.interBatchDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	inserted, err := ingestPosts(ctx, w.store, w.publisher, w.logger, accumulated)
	if err != nil {
		return fmt.Errorf("ingest: author batch worker: %w", err)
	}

	recordWorkerHealth(w.logger, "author_batch", len(batches), batchFailures)

	w.logger.Info().
		Int("fetched", len(accumulated)).
		Int("inserted", inserted).
		Int("batch_failures", batchFailures).
		Int("batch_count", len(batches)).
		Msg("ingest: author batch run complete")

	if batchFailures == len(batches) && len(batches) > 0 {
		return fmt.Errorf("ingest: author batch worker: all %d batches failed", len(batches))
	}
	return nil
}

// partitionHandles splits handles into chunks of at most size.
func partitionHandles(handles []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(handles); start += size {
		end := start + size
		if end > len(handles) {
			end = len(handles)
		}
		batches = append(batches, handles[start:end])
	}
	return batches
}

// unionQuery builds a provider "from:h1 OR from:h2 OR ..." union query.
func unionQuery(handles []string) string {
	parts := make([]string, len(handles))
	for i, h := range handles {
		parts[i] = "from:" + h
	}
	return strings.Join(parts, " OR ")
}
