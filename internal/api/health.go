// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package api

import (
	"net/http"

	"github.com/tomtom215/newsclust/internal/runstatus"
)

// Health handles GET /internal/health: the most recent outcome of every
// scheduled job the operator cares about (ingest-accounts, ingest-keywords,
// cluster-sync, cluster-curate, analytics-backfill), sourced from
// internal/runstatus rather than from a live process check, since the
// scheduler already persists every invocation's outcome there.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	summary, err := runstatus.Summary(r.Context(), h.store, h.healthLimit)
	if err != nil {
		h.logger.Error().Err(err).Msg("api: health summary failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to read run status")
		return
	}
	writeOK(w, summary)
}
