// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package api exposes the story read model and its feedback loop over
// HTTP, using go-chi/chi/v5 for routing and go-chi/httprate for per-group
// rate limiting. Read routes are public; the review/curate trigger routes
// are operator tools gated behind internal/auth's bearer middleware.
package api
