// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package curate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/newsclust/internal/store"
)

func TestTokenize_FiltersStopwordsAndShortTokens(t *testing.T) {
	toks := tokenize("The Fed raises rates by 25bp to 5.50%")
	assert.Contains(t, toks, "raises")
	assert.Contains(t, toks, "rates")
	assert.NotContains(t, toks, "the")
	assert.NotContains(t, toks, "by")
	assert.NotContains(t, toks, "to")
}

func TestTokenize_PreservesTickersAndNumerics(t *testing.T) {
	toks := tokenize("$TSLA drops 12% after earnings")
	assert.Contains(t, toks, "$tsla")
	assert.Contains(t, toks, "12%")
}

func TestBuildCandidateGroups_SmallSetIsSingleGroup(t *testing.T) {
	clusters := make([]store.Cluster, 5)
	for i := range clusters {
		clusters[i] = store.Cluster{ID: int64(i + 1), NormalizedHeadline: "unrelated headline content"}
	}
	groups := BuildCandidateGroups(clusters)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0], 5)
}

func TestBuildCandidateGroups_LargeSetLinksBySharedTokens(t *testing.T) {
	clusters := make([]store.Cluster, smallGroupThreshold+2)
	for i := range clusters {
		clusters[i] = store.Cluster{ID: int64(i + 1), NormalizedHeadline: "completely unrelated filler content only"}
	}
	clusters[0].ID = 1000
	clusters[0].NormalizedHeadline = "central bank raises interest rates sharply"
	clusters[1].ID = 1001
	clusters[1].NormalizedHeadline = "central bank raises interest rates again today"

	groups := BuildCandidateGroups(clusters)
	found := false
	for _, g := range groups {
		ids := map[int64]bool{}
		for _, c := range g {
			ids[c.ID] = true
		}
		if ids[1000] && ids[1001] {
			found = true
		}
	}
	assert.True(t, found, "expected clusters 1000 and 1001 to share a candidate group")
}

func TestBuildCandidateGroups_Empty(t *testing.T) {
	assert.Nil(t, BuildCandidateGroups(nil))
}
