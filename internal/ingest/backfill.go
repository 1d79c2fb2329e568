// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package ingest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/eventbus"
)

// defaultBackfillLimit bounds an operator-triggered backfill that does not
// specify one, so a malformed or overly broad request can't re-queue the
// entire post table in one event.
const defaultBackfillLimit = 500

// EmbeddingBackfillStore is the subset of store.PostStore the backfill
// handler depends on.
type EmbeddingBackfillStore interface {
	PostsNeedingEmbedding(ctx context.Context, limit int, backfill bool) ([]int64, error)
}

// RunBackfill handles cluster.backfill.requested: it re-emits
// post.preprocess for posts missing an embedding so preprocess.Worker picks
// them back up. allTweets widens the candidate set from the default
// embedding-needed query to every normalized post regardless of prior
// attempts, matching PostsNeedingEmbedding's own backfill flag.
//
// lookbackHours has no effect on the current candidate query — it exists
// on the wire payload for a future time-bounded variant — so it is only
// logged, never silently dropped without a trace.
func RunBackfill(ctx context.Context, st EmbeddingBackfillStore, publisher Publisher, logger zerolog.Logger, req eventbus.ClusterBackfillPayload) (int, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultBackfillLimit
	}

	if req.LookbackHours > 0 {
		logger.Debug().Int("lookback_hours", req.LookbackHours).Msg("backfill: lookback_hours is accepted but not yet applied to the candidate query")
	}

	ids, err := st.PostsNeedingEmbedding(ctx, limit, req.AllTweets)
	if err != nil {
		return 0, fmt.Errorf("backfill: list posts needing embedding: %w", err)
	}

	var firstErr error
	emitted := 0
	for _, postID := range ids {
		event, err := eventbus.NewEvent(uuid.NewString(), eventbus.TopicPostPreprocess, eventbus.PostEventPayload{
			PostID: strconv.FormatInt(postID, 10),
			Reason: "backfill",
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := publisher.PublishEvent(ctx, event); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		emitted++
	}

	logger.Info().Int("requested_limit", limit).Int("emitted", emitted).Bool("all_tweets", req.AllTweets).Msg("backfill: re-emitted preprocess events")
	return emitted, firstErr
}
