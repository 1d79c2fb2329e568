// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package preprocess wires the normalize and embed stages behind the
// post.ingested / post.preprocess events, so each post's lifetime runs
// normalize then embed in order, with embed triggered immediately after
// normalize succeeds.
package preprocess

import (
	"context"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/eventbus"
)

// Normalizer is the subset of normalize.Worker the preprocess handler
// depends on.
type Normalizer interface {
	NormalizeOne(ctx context.Context, postID int64) error
}

// Embedder is the subset of embed.Worker the preprocess handler depends on.
type Embedder interface {
	EmbedOne(ctx context.Context, postID int64) error
}

// Worker runs normalize then embed for a single post per event.
type Worker struct {
	normalizer Normalizer
	embedder   Embedder
	logger     zerolog.Logger
}

// NewWorker builds a Worker.
func NewWorker(normalizer Normalizer, embedder Embedder, logger zerolog.Logger) *Worker {
	return &Worker{normalizer: normalizer, embedder: embedder, logger: logger}
}

// Handle implements eventbus.EventHandlerFunc for post.ingested and
// post.preprocess: it normalizes the post, then — only on success —
// embeds it. A normalize failure is returned so the event is nacked and
// redelivered; URL and image enrichment are handled by their own
// independently scheduled workers and are not awaited here, so normalize
// uses whatever enrichment context is already available.
func (w *Worker) Handle(ctx context.Context, event *eventbus.Event) error {
	var payload eventbus.PostEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}

	postID, err := strconv.ParseInt(payload.PostID, 10, 64)
	if err != nil {
		return nil
	}

	if err := w.normalizer.NormalizeOne(ctx, postID); err != nil {
		w.logger.Warn().Err(err).Str("post_id", payload.PostID).Msg("preprocess: normalize failed")
		return err
	}

	if err := w.embedder.EmbedOne(ctx, postID); err != nil {
		w.logger.Warn().Err(err).Str("post_id", payload.PostID).Msg("preprocess: embed failed")
		return err
	}

	return nil
}
