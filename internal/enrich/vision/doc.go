// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package vision classifies post images into a closed category set and,
// for those warranting financial analysis, requests a short summary. A
// failed classification persists "error" and never blocks normalization.
package vision
