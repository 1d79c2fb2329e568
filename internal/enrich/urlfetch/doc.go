// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package urlfetch fetches a post's linked URL with a browser-like user
// agent, falling back through a configured proxy chain
// on failure, extract readable article text with go-readability, and store
// either the cleaned text or a failure sentinel so the row is never
// retried forever.
package urlfetch
