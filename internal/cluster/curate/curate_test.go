// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package curate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/llm"
	"github.com/tomtom215/newsclust/internal/store"
)

func llmReturning(t *testing.T, content string) *llm.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":` + quoteJSON(content) + `}}]}`))
	}))
	t.Cleanup(srv.Close)
	return llm.New(srv.URL, "key", 0)
}

func quoteJSON(s string) string {
	b := []byte{'"'}
	for _, r := range s {
		switch r {
		case '"':
			b = append(b, '\\', '"')
		case '\\':
			b = append(b, '\\', '\\')
		case '\n':
			b = append(b, '\\', 'n')
		default:
			b = append(b, string(r)...)
		}
	}
	b = append(b, '"')
	return string(b)
}

func TestProposeMerges_ParsesValidGroups(t *testing.T) {
	client := llmReturning(t, `{"merge_groups":[{"cluster_ids":[1,2],"reason":"same event"}]}`)
	groups := [][]store.Cluster{{
		{ID: 1, NormalizedHeadline: "Fed raises rates", NormalizedFacts: []string{"25bp hike"}},
		{ID: 2, NormalizedHeadline: "Federal Reserve hikes rates", NormalizedFacts: []string{"25bp hike confirmed"}},
	}}

	out, err := ProposeMerges(context.Background(), client, "model", groups, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []int64{1, 2}, out[0].ClusterIDs)
}

func TestProposeMerges_DropsSingletonGroups(t *testing.T) {
	client := llmReturning(t, `{"merge_groups":[{"cluster_ids":[1],"reason":"not a dup"}]}`)
	groups := [][]store.Cluster{{{ID: 1, NormalizedHeadline: "headline"}}}

	out, err := ProposeMerges(context.Background(), client, "model", groups, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestProposeMerges_BatchesOnCharBudget(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"merge_groups\":[]}"}}]}`))
	}))
	defer srv.Close()
	client := llm.New(srv.URL, "key", 0)

	bigFact := make([]byte, 4000)
	for i := range bigFact {
		bigFact[i] = 'x'
	}
	clusters := []store.Cluster{
		{ID: 1, NormalizedHeadline: "h1", NormalizedFacts: []string{string(bigFact)}},
		{ID: 2, NormalizedHeadline: "h2", NormalizedFacts: []string{string(bigFact)}},
		{ID: 3, NormalizedHeadline: "h3", NormalizedFacts: []string{string(bigFact)}},
		{ID: 4, NormalizedHeadline: "h4", NormalizedFacts: []string{string(bigFact)}},
	}

	_, err := ProposeMerges(context.Background(), client, "model", [][]store.Cluster{clusters}, zerolog.Nop())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, calls, 2)
}
