// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package review

import (
	"context"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/eventbus"
)

// Handler adapts Worker.ReviewOne to eventbus.EventHandlerFunc for
// cluster.review.requested.
type Handler struct {
	worker *Worker
	logger zerolog.Logger
}

// NewHandler builds a Handler.
func NewHandler(worker *Worker, logger zerolog.Logger) *Handler {
	return &Handler{worker: worker, logger: logger}
}

// Handle unmarshals a ClusterReviewPayload and reviews the named cluster.
func (h *Handler) Handle(ctx context.Context, event *eventbus.Event) error {
	var payload eventbus.ClusterReviewPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}

	if err := h.worker.ReviewOne(ctx, payload.ClusterID); err != nil {
		h.logger.Warn().Err(err).Int64("cluster_id", payload.ClusterID).Msg("review: review failed")
		return err
	}
	return nil
}
