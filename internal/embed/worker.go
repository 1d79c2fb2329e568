// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package embed

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/cache"
	"github.com/tomtom215/newsclust/internal/metrics"
	"github.com/tomtom215/newsclust/internal/store"
)

// headlineCacheTTL bounds how long an embedding is reused for a repeated
// normalized headline, matching the rough window wire copy keeps getting
// reposted verbatim by different accounts before cluster-sync would have
// grouped them anyway.
const headlineCacheTTL = 6 * time.Hour

// EmbeddingStore is the subset of store.PostStore the embed worker depends
// on.
type EmbeddingStore interface {
	PostsNeedingEmbedding(ctx context.Context, limit int, backfill bool) ([]int64, error)
	SetPostEmbedding(ctx context.Context, postID int64, embedding []float32) error
	GetPost(ctx context.Context, postID int64) (store.Post, error)
}

// Worker embeds posts whose normalized headline exists but whose embedding
// does not, skipping any that already have one unless backfill is set.
type Worker struct {
	client       *Client
	store        EmbeddingStore
	logger       zerolog.Logger
	limit        int
	headlineHits cache.Cacher
}

// NewWorker builds a Worker, polling up to limit candidate posts per run.
// It caches embeddings by normalized headline text so verbatim-duplicate
// wire copy reposted by different accounts costs one provider call instead
// of one per post.
func NewWorker(client *Client, st EmbeddingStore, logger zerolog.Logger, limit int) *Worker {
	if limit <= 0 {
		limit = 50
	}
	return &Worker{
		client:       client,
		store:        st,
		logger:       logger,
		limit:        limit,
		headlineHits: cache.NewTTL(headlineCacheTTL),
	}
}

// Run embeds every post returned by PostsNeedingEmbedding this tick.
func (w *Worker) Run(ctx context.Context, backfill bool) error {
	ids, err := w.store.PostsNeedingEmbedding(ctx, w.limit, backfill)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.embedOne(ctx, id)
	}
	return nil
}

// EmbedOne embeds a single post, for use directly from the preprocess
// worker immediately after normalize succeeds.
func (w *Worker) EmbedOne(ctx context.Context, postID int64) error {
	start := time.Now()

	post, err := w.store.GetPost(ctx, postID)
	if err != nil {
		metrics.RecordPipelineStage("embed", time.Since(start), "transient")
		return err
	}
	if post.NormalizedHeadline == nil {
		metrics.RecordPipelineStage("embed", time.Since(start), "")
		return nil
	}

	headline := *post.NormalizedHeadline
	key := cache.GenerateKey("embed", headline)

	var vector []float32
	if cached, ok := w.headlineHits.Get(key); ok {
		vector = cached.([]float32)
	} else {
		vector, err = w.client.Embed(ctx, headline)
		if err != nil {
			metrics.RecordPipelineStage("embed", time.Since(start), "transient")
			return err
		}
		w.headlineHits.Set(key, vector)
	}

	if err := w.store.SetPostEmbedding(ctx, postID, vector); err != nil {
		metrics.RecordPipelineStage("embed", time.Since(start), "transient")
		return err
	}

	metrics.RecordPipelineStage("embed", time.Since(start), "")
	return nil
}

func (w *Worker) embedOne(ctx context.Context, postID int64) {
	if err := w.EmbedOne(ctx, postID); err != nil {
		w.logger.Warn().Err(err).Int64("post_id", postID).Msg("embed: failed")
	}
}
