// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/newsclust/internal/story"
)

const (
	defaultLookbackHours = 24.0
	defaultStoryLimit    = 50
	maxStoryLimit        = 200
)

// Stories handles GET /api/v1/stories: the ranked story read model.
//
// Query params: lookback_hours (float, default 24), limit (int, default
// 50, capped at 200), story_candidates_only (bool, default false).
func (h *Handler) Stories(w http.ResponseWriter, r *http.Request) {
	params := story.Params{
		LookbackHours: defaultLookbackHours,
		Limit:         defaultStoryLimit,
	}

	if v := r.URL.Query().Get("lookback_hours"); v != "" {
		hours, err := strconv.ParseFloat(v, 64)
		if err != nil || hours <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_lookback_hours", "lookback_hours must be a positive number")
			return
		}
		params.LookbackHours = hours
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		if limit > maxStoryLimit {
			limit = maxStoryLimit
		}
		params.Limit = limit
	}

	if v := r.URL.Query().Get("story_candidates_only"); v != "" {
		onlyCandidates, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_story_candidates_only", "story_candidates_only must be true or false")
			return
		}
		params.OnlyStoryCandidates = onlyCandidates
	}

	key := storiesCacheKey(params)
	if cached, ok := h.storiesCache.Get(key); ok {
		writeOK(w, cached.([]story.Story))
		return
	}

	stories, err := story.Read(r.Context(), h.store, time.Now(), params)
	if err != nil {
		h.logger.Error().Err(err).Msg("api: read stories failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to read stories")
		return
	}

	h.storiesCache.Set(key, stories)
	writeOK(w, stories)
}
