// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package normalize

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/llm"
	"github.com/tomtom215/newsclust/internal/metrics"
	"github.com/tomtom215/newsclust/internal/store"
)

// PostContextStore is the subset of store.PostStore the normalize worker
// depends on.
type PostContextStore interface {
	PostNormalizeContext(ctx context.Context, postID int64) (store.Post, []string, []string, error)
	SetPostNormalized(ctx context.Context, postID int64, headline string, facts []string) error
}

// Worker normalizes a single post per invocation, driven by post.ingested
// and post.preprocess events.
type Worker struct {
	client *llm.Client
	opts   Options
	store  PostContextStore
	logger zerolog.Logger
}

// NewWorker builds a Worker.
func NewWorker(client *llm.Client, opts Options, st PostContextStore, logger zerolog.Logger) *Worker {
	return &Worker{client: client, opts: opts, store: st, logger: logger}
}

// NormalizeOne loads postID's context, calls the normalize LLM, and
// persists the result. A post with no text and no image summaries is
// persisted with FallbackHeadline and no facts, without an LLM call.
func (w *Worker) NormalizeOne(ctx context.Context, postID int64) error {
	start := time.Now()

	post, urlContents, imageSummaries, err := w.store.PostNormalizeContext(ctx, postID)
	if err != nil {
		metrics.RecordPipelineStage("normalize", time.Since(start), "transient")
		return err
	}

	result, err := Normalize(ctx, w.client, w.opts, Input{
		PostText:       post.RawText,
		URLContents:    urlContents,
		ImageSummaries: imageSummaries,
	})
	if err != nil {
		metrics.RecordPipelineStage("normalize", time.Since(start), "transient")
		return err
	}

	if err := w.store.SetPostNormalized(ctx, postID, result.Headline, result.Facts); err != nil {
		metrics.RecordPipelineStage("normalize", time.Since(start), "transient")
		return err
	}

	metrics.RecordPipelineStage("normalize", time.Since(start), "")
	return nil
}
