// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package vision

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/llm"
	"github.com/tomtom215/newsclust/internal/metrics"
	"github.com/tomtom215/newsclust/internal/store"
)

// PendingImageStore is the subset of store.PostStore the vision worker
// depends on.
type PendingImageStore interface {
	PendingPostImages(ctx context.Context, limit int) ([]store.PostImage, error)
	SetPostImageClassification(ctx context.Context, id int64, category string, warrantsFinancial bool) error
	SetPostImageSummary(ctx context.Context, id int64, summary string) error
	GetPost(ctx context.Context, postID int64) (store.Post, error)
}

// Worker classifies pending post-images and, for those warranting it,
// requests a follow-up summary.
type Worker struct {
	client *llm.Client
	model  string
	store  PendingImageStore
	logger zerolog.Logger
	limit  int
}

// NewWorker builds a Worker, polling up to limit pending rows per run.
func NewWorker(client *llm.Client, model string, st PendingImageStore, logger zerolog.Logger, limit int) *Worker {
	if limit <= 0 {
		limit = 50
	}
	return &Worker{client: client, model: model, store: st, logger: logger, limit: limit}
}

// Run classifies every pending image this tick, summarizing those that
// warrant financial analysis.
func (w *Worker) Run(ctx context.Context) error {
	pending, err := w.store.PendingPostImages(ctx, w.limit)
	if err != nil {
		return err
	}

	for _, img := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.processOne(ctx, img)
	}
	return nil
}

func (w *Worker) processOne(ctx context.Context, img store.PostImage) {
	start := time.Now()

	post, err := w.store.GetPost(ctx, img.PostID)
	if err != nil {
		w.logger.Warn().Err(err).Int64("post_image_id", img.ID).Msg("vision: load post failed")
		w.persistError(ctx, img.ID)
		metrics.RecordPipelineStage("enrich_image", time.Since(start), "transient")
		return
	}

	result := Classify(ctx, w.client, w.model, post.RawText, img.ImageURL)
	if classifyErr := w.store.SetPostImageClassification(ctx, img.ID, result.Category, result.WarrantsFinancial); classifyErr != nil {
		w.logger.Warn().Err(classifyErr).Int64("post_image_id", img.ID).Msg("vision: store classification failed")
		metrics.RecordPipelineStage("enrich_image", time.Since(start), "transient")
		return
	}

	if result.Category == ErrorCategory {
		metrics.RecordPipelineStage("enrich_image", time.Since(start), "model_error")
		return
	}

	if !result.WarrantsFinancial {
		metrics.RecordPipelineStage("enrich_image", time.Since(start), "")
		return
	}

	summary := Summarize(ctx, w.client, w.model, post.RawText, img.ImageURL)
	if summary != "" {
		if err := w.store.SetPostImageSummary(ctx, img.ID, summary); err != nil {
			w.logger.Warn().Err(err).Int64("post_image_id", img.ID).Msg("vision: store summary failed")
		}
	}

	metrics.RecordPipelineStage("enrich_image", time.Since(start), "")
}

func (w *Worker) persistError(ctx context.Context, imageID int64) {
	if err := w.store.SetPostImageClassification(ctx, imageID, ErrorCategory, false); err != nil {
		w.logger.Warn().Err(err).Int64("post_image_id", imageID).Msg("vision: store error classification failed")
	}
}
