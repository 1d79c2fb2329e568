// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package pgvector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/newsclust/internal/store"
)

func vec(base float32, n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = base
	}
	return v
}

func TestClusterByEmbedding_SimpleComponent(t *testing.T) {
	now := time.Now()
	candidates := []store.EmbeddingCandidate{
		{PostID: 1, CreatedAt: now, Embedding: vec(1.0, 8)},
		{PostID: 2, CreatedAt: now.Add(time.Minute), Embedding: vec(1.0, 8)},
		{PostID: 3, CreatedAt: now.Add(2 * time.Minute), Embedding: vec(-1.0, 8)},
	}
	components := ClusterByEmbedding(candidates, Params{
		SimilarityThreshold: 0.9,
		MinClusterSize:      2,
		MaxDaysWindow:       3,
	})
	require.Len(t, components, 1)
	assert.Equal(t, []int64{1, 2}, components[0].PostIDs)
}

func TestClusterByEmbedding_BelowMinSizeDropped(t *testing.T) {
	now := time.Now()
	candidates := []store.EmbeddingCandidate{
		{PostID: 1, CreatedAt: now, Embedding: vec(1.0, 4)},
		{PostID: 2, CreatedAt: now, Embedding: vec(-1.0, 4)},
	}
	components := ClusterByEmbedding(candidates, Params{
		SimilarityThreshold: 0.9,
		MinClusterSize:      2,
		MaxDaysWindow:       3,
	})
	assert.Empty(t, components)
}

func TestClusterByEmbedding_SpanExceedsMaxDaysWindowDropped(t *testing.T) {
	now := time.Now()
	candidates := []store.EmbeddingCandidate{
		{PostID: 1, CreatedAt: now, Embedding: vec(1.0, 4)},
		{PostID: 2, CreatedAt: now.Add(5 * 24 * time.Hour), Embedding: vec(1.0, 4)},
	}
	components := ClusterByEmbedding(candidates, Params{
		SimilarityThreshold: 0.9,
		MinClusterSize:      2,
		MaxDaysWindow:       3,
	})
	assert.Empty(t, components)
}

func TestClusterByEmbedding_UnlinkedPostExcluded(t *testing.T) {
	now := time.Now()
	candidates := []store.EmbeddingCandidate{
		{PostID: 1, CreatedAt: now, Embedding: []float32{1, 0}},
		{PostID: 2, CreatedAt: now, Embedding: []float32{0.99, 0.01}},
		{PostID: 3, CreatedAt: now, Embedding: []float32{0, 1}},
	}
	// Only the (1,2) pair crosses the threshold; 3 is linked to neither, so
	// it forms a singleton that MinClusterSize drops.
	components := ClusterByEmbedding(candidates, Params{
		SimilarityThreshold: 0.95,
		MinClusterSize:      2,
		MaxDaysWindow:       3,
	})
	require.Len(t, components, 1)
	assert.Equal(t, []int64{1, 2}, components[0].PostIDs)
}

func TestClusterByEmbedding_Empty(t *testing.T) {
	assert.Empty(t, ClusterByEmbedding(nil, Params{MinClusterSize: 2}))
}
