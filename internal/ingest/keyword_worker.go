// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/search"
)

// KeywordWorker runs a single fixed multi-keyword query, paginated by a
// fixed page count, every hour per the configured cron.
type KeywordWorker struct {
	searcher  Searcher
	store     PostStore
	publisher Publisher
	logger    zerolog.Logger
	keywords  []string
	pageCount int
}

// NewKeywordWorker builds a KeywordWorker. pageCount comes from
// config.PostSourceConfig.KeywordPageCount.
func NewKeywordWorker(searcher Searcher, st PostStore, publisher Publisher, logger zerolog.Logger, keywords []string, pageCount int) *KeywordWorker {
	if pageCount <= 0 {
		pageCount = 2
	}
	return &KeywordWorker{
		searcher:  searcher,
		store:     st,
		publisher: publisher,
		logger:    logger,
		keywords:  keywords,
		pageCount: pageCount,
	}
}

// Run issues the keyword query, paginating up to pageCount pages, stops
// paginating at the first page fetch error, and ingests everything
// accumulated. The run fails only when a page fetch failed and no posts
// were accumulated.
func (w *KeywordWorker) Run(ctx context.Context) error {
	if len(w.keywords) == 0 {
		return nil
	}

	query := strings.Join(w.keywords, " OR ")

	var accumulated []search.RawPost
	var pageFailures, pagesAttempted int
	cursor := ""

	for page := 0; page < w.pageCount; page++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		pagesAttempted++
		result, err := w.searcher.SearchByQuery(ctx, query, cursor)
		if err != nil {
			pageFailures++
			w.logger.Warn().Err(err).Int("page", page).Msg("ingest: keyword page failed")
			break
		}

		accumulated = append(accumulated, result.Posts...)
		if !result.HasMore || result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	inserted, err := ingestPosts(ctx, w.store, w.publisher, w.logger, accumulated)
	if err != nil {
		return fmt.Errorf("ingest: keyword worker: %w", err)
	}

	recordWorkerHealth(w.logger, "keyword", pagesAttempted, pageFailures)

	w.logger.Info().
		Int("fetched", len(accumulated)).
		Int("inserted", inserted).
		Int("page_failures", pageFailures).
		Msg("ingest: keyword run complete")

	if pageFailures > 0 && len(accumulated) == 0 {
		return fmt.Errorf("ingest: keyword worker: first page fetch failed")
	}
	return nil
}
