// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/newsclust/internal/eventbus"
	"github.com/tomtom215/newsclust/internal/validation"
)

// TriggerReview handles POST /api/v1/operator/clusters/{id}/review: runs
// cluster-review's outlier-pruning pass for one cluster synchronously, for
// an operator who doesn't want to wait for the next cluster-sync-triggered
// review event. Bearer-gated; see internal/auth.
func (h *Handler) TriggerReview(w http.ResponseWriter, r *http.Request) {
	if h.reviewWorker == nil {
		writeError(w, http.StatusServiceUnavailable, "review_disabled", "review worker is not configured")
		return
	}

	clusterID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_cluster_id", "cluster id must be an integer")
		return
	}

	if err := h.reviewWorker.ReviewOne(r.Context(), clusterID); err != nil {
		h.logger.Error().Err(err).Int64("cluster_id", clusterID).Msg("api: triggered review failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "review failed")
		return
	}

	writeOK(w, map[string]string{"status": "reviewed"})
}

// TriggerCurate handles POST /api/v1/operator/curate: runs one
// cluster-curate duplicate-merge pass synchronously, for an operator
// who wants an off-cycle merge sweep. Bearer-gated; see internal/auth.
func (h *Handler) TriggerCurate(w http.ResponseWriter, r *http.Request) {
	if h.curateWorker == nil {
		writeError(w, http.StatusServiceUnavailable, "curate_disabled", "curate worker is not configured")
		return
	}

	if err := h.curateWorker.Run(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("api: triggered curate failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "curate failed")
		return
	}

	writeOK(w, map[string]string{"status": "curated"})
}

// backfillRequest is the operator-supplied body for TriggerBackfill,
// mirroring eventbus.ClusterBackfillPayload's fields with validation tags
// since this is the one request body the API accepts untyped JSON numbers
// for.
type backfillRequest struct {
	Limit         int  `json:"limit" validate:"omitempty,min=1,max=50000"`
	LookbackHours int  `json:"lookback_hours" validate:"omitempty,min=1,max=8760"`
	AllTweets     bool `json:"all_tweets"`
}

// TriggerBackfill handles POST /api/v1/operator/backfill: publishes a
// cluster.backfill.requested event with the given parameters (or an empty
// body for the default). Bearer-gated; see internal/auth.
func (h *Handler) TriggerBackfill(w http.ResponseWriter, r *http.Request) {
	var req backfillRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
			return
		}
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		writeError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message)
		return
	}

	if h.backfillPublisher == nil {
		writeError(w, http.StatusServiceUnavailable, "backfill_disabled", "event bus is not configured")
		return
	}

	event, err := h.backfillEvent(req)
	if err != nil {
		h.logger.Error().Err(err).Msg("api: build backfill event failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to build backfill event")
		return
	}
	if err := h.backfillPublisher.PublishEvent(r.Context(), event); err != nil {
		h.logger.Error().Err(err).Msg("api: publish backfill event failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to publish backfill request")
		return
	}

	writeOK(w, map[string]string{"status": "requested"})
}

// backfillEvent builds the cluster.backfill.requested event for req.
func (h *Handler) backfillEvent(req backfillRequest) (*eventbus.Event, error) {
	return eventbus.NewEvent(uuid.NewString(), eventbus.TopicClusterBackfillRequested, eventbus.ClusterBackfillPayload{
		Limit:         req.Limit,
		LookbackHours: req.LookbackHours,
		AllTweets:     req.AllTweets,
	})
}
