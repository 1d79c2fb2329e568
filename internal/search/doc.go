// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package search wraps the external post-search API consumed by
// internal/ingest: author-timeline union queries for the author-batch
// worker, and keyword queries for the keyword worker. It speaks plain
// HTTP + JSON and retries 429 responses with capped exponential backoff.
package search
