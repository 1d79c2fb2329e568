// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package ingest runs the two ingest schedulers: AuthorBatchWorker polls a
// curated handle list in union-query batches
// every 15 minutes, and KeywordWorker runs a fixed multi-keyword, paginated
// query hourly. Both dedupe fetched posts by external id, upsert in fixed
// batches, and emit a post.ingested event per post the store reports as
// newly inserted — never re-deriving that set with a separate select,
// since only the upsert's own "inserted" result is race-free against a
// concurrent ingest entry point touching the same post.
package ingest
