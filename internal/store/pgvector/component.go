// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package pgvector implements the Go-side replacement for the single
// stored-procedure step of cluster-sync: on-the-fly connected-components
// clustering over a cosine-similarity graph of candidate post embeddings.
//
// A recursive CTE is a natural fit when the work colocates with the store,
// but the pairwise comparison and component discovery are plain graph
// algorithms with no need for SQL; union-find with path compression runs the
// same O(n^2 alpha(n)) shape in Go without the server-side statement-timeout
// workaround the procedural version needs.
package pgvector

import (
	"sort"
	"time"

	"github.com/tomtom215/newsclust/internal/store"
	"github.com/tomtom215/newsclust/internal/vector"
)

// Component is one connected component of the candidate similarity graph,
// filtered by size and time span.
type Component struct {
	PostIDs  []int64
	Earliest time.Time
	Latest   time.Time
}

// Params mirrors the clustering pass's (since, threshold, min_size,
// max_days_window) signature.
type Params struct {
	SimilarityThreshold float64
	MinClusterSize      int
	MaxDaysWindow        int
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

// ClusterByEmbedding builds the undirected similarity graph over
// candidates, takes connected components, and filters by minimum size and
// maximum day span.
func ClusterByEmbedding(candidates []store.EmbeddingCandidate, params Params) []Component {
	n := len(candidates)
	if n == 0 {
		return nil
	}

	uf := newUnionFind(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := vector.Cosine(candidates[i].Embedding, candidates[j].Embedding)
			if sim >= params.SimilarityThreshold {
				uf.union(i, j)
			}
		}
	}

	groups := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}

	var out []Component
	for _, idxs := range groups {
		if len(idxs) < params.MinClusterSize {
			continue
		}

		earliest := candidates[idxs[0]].CreatedAt
		latest := candidates[idxs[0]].CreatedAt
		postIDs := make([]int64, 0, len(idxs))
		for _, idx := range idxs {
			ts := candidates[idx].CreatedAt
			if ts.Before(earliest) {
				earliest = ts
			}
			if ts.After(latest) {
				latest = ts
			}
			postIDs = append(postIDs, candidates[idx].PostID)
		}

		if params.MaxDaysWindow > 0 {
			span := latest.Sub(earliest)
			if span > time.Duration(params.MaxDaysWindow)*24*time.Hour {
				continue
			}
		}

		sort.Slice(postIDs, func(a, b int) bool { return postIDs[a] < postIDs[b] })
		out = append(out, Component{PostIDs: postIDs, Earliest: earliest, Latest: latest})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Earliest.Before(out[j].Earliest) })
	return out
}
