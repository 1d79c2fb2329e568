// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package story is the consumer-facing read model: it ranks active,
// unmerged clusters by a freshness/volume/engagement/feedback score and
// exposes the ranked list to internal/api. Score is a pure function of
// cluster + feedback aggregates, kept separate from Read's store access so
// it can be tested against the literal scenario oracles without a database.
package story
