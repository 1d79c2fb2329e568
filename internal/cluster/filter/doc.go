// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package filter holds the promotional/spam and low-information heuristics
// behind a cluster's is_story_candidate flag, called by the story read
// model (internal/story) and by newsctl's cluster-health-check. Kept isolated
// from the store package so the rules can be unit tested and tuned without
// a database.
package filter
