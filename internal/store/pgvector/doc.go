// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package pgvector holds the pure, in-process half of cluster-sync's
// matching logic: connected-components clustering (ClusterByEmbedding) and
// the plurality-vote/Jaccard match rule (PluralityOwner, IsUpdateMatch) that
// decide whether a component updates an existing persistent cluster or
// seeds a new one. internal/cluster/sync wires these against store.Store
// for the actual read/write steps.
package pgvector
