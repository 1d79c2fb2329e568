// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package ingest

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/cache"
	"github.com/tomtom215/newsclust/internal/eventbus"
	"github.com/tomtom215/newsclust/internal/search"
	"github.com/tomtom215/newsclust/internal/store"
)

// upsertBatchSize is the fixed batch size for the post upsert.
const upsertBatchSize = 50

// recentExternalIDs suppresses re-upserting external ids this process has
// already ingested recently, the way overlapping author/keyword polling
// windows repeat the same posts across ticks. A post the store genuinely
// hasn't seen is never skipped: ExactLRU has zero false positives, so this
// is purely a DB round-trip saving and never a correctness gate (the
// store's own upsert stays authoritative).
var recentExternalIDs cache.DeduplicationCache = cache.NewExactLRU(200000, 2*time.Hour)

// workerAttempts and workerFailures track per-worker fetch attempts and
// failures over a rolling hour, keyed by worker name. A single bad tick
// (a transient provider blip) never trips the sustained-failure warning
// in recordWorkerHealth; only a string of bad ticks across the window
// does.
var (
	workerAttempts = cache.NewSlidingWindowStore(time.Hour, 12, 0)
	workerFailures = cache.NewSlidingWindowStore(time.Hour, 12, 0)
)

// recordWorkerHealth folds this run's attempt/failure counts into the
// rolling window and warns once the windowed failure rate crosses 50%,
// the way a degraded provider shows up as a trend across ticks rather
// than a single noisy run.
func recordWorkerHealth(logger zerolog.Logger, worker string, attempts, failures int) {
	if attempts <= 0 {
		return
	}
	workerAttempts.IncrementBy(worker, int64(attempts))
	if failures > 0 {
		workerFailures.IncrementBy(worker, int64(failures))
	}

	total := workerAttempts.Count(worker)
	failed := workerFailures.Count(worker)
	if total >= 4 && failed*2 >= total {
		logger.Warn().
			Str("worker", worker).
			Int64("attempts_1h", total).
			Int64("failures_1h", failed).
			Msg("ingest: sustained provider failure rate over past hour")
	}
}

// Publisher is the subset of eventbus.Publisher used by ingest.
type Publisher interface {
	PublishEvent(ctx context.Context, event *eventbus.Event) error
}

// PostStore is the subset of store.PostStore ingest depends on, so tests
// exercise the conversion/dedupe/event logic without a full store.Store
// fake.
type PostStore interface {
	UpsertPosts(ctx context.Context, posts []store.Post) (store.UpsertResult, error)
	UpsertPostURLs(ctx context.Context, urls []store.PostURL) error
	UpsertPostImages(ctx context.Context, images []store.PostImage) error
	UpsertPostVideos(ctx context.Context, videos []store.PostVideo) error
	GetPostsNeedingNormalize(ctx context.Context, postIDs []int64) ([]int64, error)
}

// ingestPosts dedupes posts by external id, upserts them in fixed-size
// batches (ignoring duplicates), upserts enrichment rows for every newly
// inserted post, and emits a post.ingested event per inserted post still
// needing normalization. It returns the count of posts actually inserted.
func ingestPosts(ctx context.Context, st PostStore, publisher Publisher, logger zerolog.Logger, posts []search.RawPost) (int, error) {
	deduped := dedupeByExternalID(posts)
	if len(deduped) == 0 {
		return 0, nil
	}

	fresh := deduped[:0:0]
	for _, p := range deduped {
		if !recentExternalIDs.Contains(p.ExternalID) {
			fresh = append(fresh, p)
		}
	}
	deduped = fresh
	if len(deduped) == 0 {
		return 0, nil
	}

	byExternalID := externalIDToRaw(deduped)

	var inserted []store.Post
	for start := 0; start < len(deduped); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(deduped) {
			end = len(deduped)
		}

		rows := make([]store.Post, 0, end-start)
		for _, p := range deduped[start:end] {
			rows = append(rows, toStoreRow(p))
		}

		result, err := st.UpsertPosts(ctx, rows)
		if err != nil {
			return len(inserted), fmt.Errorf("ingest: upsert posts batch: %w", err)
		}
		inserted = append(inserted, result.Inserted...)

		// Only mark as seen once the store has actually confirmed this
		// batch, so a failed batch is retried next tick instead of being
		// silently dropped by the dedup cache.
		for _, p := range deduped[start:end] {
			recentExternalIDs.Record(p.ExternalID)
		}
	}

	if len(inserted) == 0 {
		return 0, nil
	}

	if err := upsertEnrichmentRows(ctx, st, byExternalID, inserted); err != nil {
		logger.Warn().Err(err).Msg("ingest: enrichment row upsert failed")
	}

	if err := emitPreprocessEvents(ctx, st, publisher, inserted); err != nil {
		logger.Warn().Err(err).Msg("ingest: preprocess event emission failed")
	}

	return len(inserted), nil
}

// upsertEnrichmentRows parses the images, urls, and video variants
// referenced by each inserted post and upserts them to their own tables.
func upsertEnrichmentRows(ctx context.Context, st PostStore, byExternalID map[string]search.RawPost, inserted []store.Post) error {
	var images []store.PostImage
	var urls []store.PostURL
	var videos []store.PostVideo

	for _, post := range inserted {
		raw, ok := byExternalID[post.ExternalID]
		if !ok {
			continue
		}
		for _, imgURL := range raw.ImageURLs {
			images = append(images, store.PostImage{PostID: post.ID, ImageURL: imgURL})
		}
		for _, u := range raw.URLs {
			urls = append(urls, store.PostURL{PostID: post.ID, URL: u})
		}
		for _, v := range raw.VideoVariants {
			videos = append(videos, store.PostVideo{PostID: post.ID, Resolution: v.Resolution, VariantURL: v.URL})
		}
	}

	if len(images) > 0 {
		if err := st.UpsertPostImages(ctx, images); err != nil {
			return fmt.Errorf("upsert post images: %w", err)
		}
	}
	if len(urls) > 0 {
		if err := st.UpsertPostURLs(ctx, urls); err != nil {
			return fmt.Errorf("upsert post urls: %w", err)
		}
	}
	if len(videos) > 0 {
		if err := st.UpsertPostVideos(ctx, videos); err != nil {
			return fmt.Errorf("upsert post videos: %w", err)
		}
	}
	return nil
}

// emitPreprocessEvents computes which inserted posts still need
// normalization (always true for brand-new rows, but recomputed from the
// store per the edit-chain contract) and publishes one post.ingested event
// per such post.
func emitPreprocessEvents(ctx context.Context, st PostStore, publisher Publisher, inserted []store.Post) error {
	if publisher == nil {
		return nil
	}

	ids := make([]int64, 0, len(inserted))
	for _, post := range inserted {
		ids = append(ids, post.ID)
	}

	needingNormalize, err := st.GetPostsNeedingNormalize(ctx, ids)
	if err != nil {
		return fmt.Errorf("get posts needing normalize: %w", err)
	}

	var firstErr error
	for _, postID := range needingNormalize {
		event, err := eventbus.NewEvent(uuid.NewString(), eventbus.TopicPostIngested, eventbus.PostEventPayload{
			PostID: strconv.FormatInt(postID, 10),
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := publisher.PublishEvent(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
