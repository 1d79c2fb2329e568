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
)

var validFeedbackLabels = map[string]bool{
	"useful":      true,
	"noise":       true,
	"bad_cluster": true,
}

type feedbackRequest struct {
	Label string `json:"label"`
}

// Feedback handles POST /api/v1/clusters/{id}/feedback: records one reader
// signal (useful, noise, or bad_cluster) against a cluster, feeding
// internal/story's feedback_penalty term.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	clusterID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_cluster_id", "cluster id must be an integer")
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if !validFeedbackLabels[req.Label] {
		writeError(w, http.StatusBadRequest, "invalid_label", "label must be one of useful, noise, bad_cluster")
		return
	}

	if err := h.store.AddClusterFeedback(r.Context(), clusterID, req.Label); err != nil {
		h.logger.Error().Err(err).Int64("cluster_id", clusterID).Msg("api: add cluster feedback failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to record feedback")
		return
	}

	writeOK(w, map[string]string{"status": "recorded"})
}

// ClusterFeedback handles GET /api/v1/clusters/{id}/feedback: the current
// feedback tally for a cluster.
func (h *Handler) ClusterFeedback(w http.ResponseWriter, r *http.Request) {
	clusterID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_cluster_id", "cluster id must be an integer")
		return
	}

	counts, err := h.store.ClusterFeedbackCounts(r.Context(), clusterID)
	if err != nil {
		h.logger.Error().Err(err).Int64("cluster_id", clusterID).Msg("api: read cluster feedback failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to read feedback")
		return
	}

	writeOK(w, counts)
}
