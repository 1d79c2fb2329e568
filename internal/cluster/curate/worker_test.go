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
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/newsclust/internal/llm"
	"github.com/tomtom215/newsclust/internal/store"
)

type fakeCurateStore struct {
	active     []store.Cluster
	unmerged   map[int64]store.Cluster
	merged     []struct{ source, target int64 }
	recomputed []int64
}

func (f *fakeCurateStore) ListActiveClusters(_ context.Context, _ time.Time, _ int) ([]store.Cluster, error) {
	return f.active, nil
}

func (f *fakeCurateStore) ReloadUnmerged(_ context.Context, clusterIDs []int64) ([]store.Cluster, error) {
	var out []store.Cluster
	for _, id := range clusterIDs {
		if c, ok := f.unmerged[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCurateStore) MergeCluster(_ context.Context, sourceID, targetID int64, _ string) error {
	f.merged = append(f.merged, struct{ source, target int64 }{sourceID, targetID})
	delete(f.unmerged, sourceID)
	return nil
}

func (f *fakeCurateStore) RecomputeClusterStats(_ context.Context, clusterID int64, _, _ int) error {
	f.recomputed = append(f.recomputed, clusterID)
	return nil
}

func TestPickTarget_LargestTweetCountWins(t *testing.T) {
	clusters := []store.Cluster{
		{ID: 1, TweetCount: 5, FirstSeenAt: time.Now()},
		{ID: 2, TweetCount: 9, FirstSeenAt: time.Now()},
		{ID: 3, TweetCount: 3, FirstSeenAt: time.Now()},
	}
	assert.Equal(t, int64(2), pickTarget(clusters).ID)
}

func TestPickTarget_TiesBreakByEarlierFirstSeenThenLowerID(t *testing.T) {
	now := time.Now()
	clusters := []store.Cluster{
		{ID: 5, TweetCount: 4, FirstSeenAt: now},
		{ID: 2, TweetCount: 4, FirstSeenAt: now.Add(-time.Hour)},
		{ID: 3, TweetCount: 4, FirstSeenAt: now.Add(-time.Hour)},
	}
	assert.Equal(t, int64(2), pickTarget(clusters).ID)
}

func TestWorker_Run_ExecutesProposedMerge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"merge_groups\":[{\"cluster_ids\":[1,2],\"reason\":\"dup\"}]}"}}]}`))
	}))
	defer srv.Close()
	client := llm.New(srv.URL, "key", 0)

	st := &fakeCurateStore{
		active: []store.Cluster{
			{ID: 1, TweetCount: 10, NormalizedHeadline: "a headline"},
			{ID: 2, TweetCount: 3, NormalizedHeadline: "a headline duplicate"},
		},
		unmerged: map[int64]store.Cluster{
			1: {ID: 1, TweetCount: 10, FirstSeenAt: time.Now()},
			2: {ID: 2, TweetCount: 3, FirstSeenAt: time.Now()},
		},
	}

	w := NewWorker(st, client, "model", 3, 2, zerolog.Nop())
	require.NoError(t, w.Run(context.Background()))

	require.Len(t, st.merged, 1)
	assert.Equal(t, int64(2), st.merged[0].source)
	assert.Equal(t, int64(1), st.merged[0].target)
	assert.Contains(t, st.recomputed, int64(1))
}

func TestWorker_Run_SkipsWhenFewerThanTwoActiveClusters(t *testing.T) {
	st := &fakeCurateStore{active: []store.Cluster{{ID: 1}}}
	w := NewWorker(st, nil, "model", 3, 2, zerolog.Nop())
	require.NoError(t, w.Run(context.Background()))
	assert.Empty(t, st.merged)
}
