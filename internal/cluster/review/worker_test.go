// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package review

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

type fakeReviewStore struct {
	cluster       store.Cluster
	members       []store.Post
	removed       []int64
	recomputed    bool
	reviewedStamp *time.Time
}

func (f *fakeReviewStore) GetCluster(_ context.Context, _ int64) (store.Cluster, error) {
	return f.cluster, nil
}

func (f *fakeReviewStore) ClusterMemberPosts(_ context.Context, _ int64, _ int) ([]store.Post, error) {
	return f.members, nil
}

func (f *fakeReviewStore) RemoveClusterMembers(_ context.Context, _ int64, postIDs []int64) error {
	f.removed = append(f.removed, postIDs...)
	return nil
}

func (f *fakeReviewStore) RecomputeClusterStats(_ context.Context, _ int64, _, _ int) error {
	f.recomputed = true
	return nil
}

func (f *fakeReviewStore) SetClusterReviewed(_ context.Context, _ int64, reviewedAt time.Time) error {
	f.reviewedStamp = &reviewedAt
	return nil
}

func newLLM(t *testing.T, content string) *llm.Client {
	t.Helper()
	escaped := ""
	for _, r := range content {
		if r == '"' {
			escaped += `\"`
			continue
		}
		escaped += string(r)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"` + escaped + `"}}]}`))
	}))
	t.Cleanup(srv.Close)
	return llm.New(srv.URL, "key", 0)
}

func TestWorker_ReviewOne_SkipsWhenReviewedRecently(t *testing.T) {
	recent := time.Now().Add(-5 * time.Minute)
	st := &fakeReviewStore{cluster: store.Cluster{ID: 1, TweetCount: 5, ReviewedAt: &recent}}
	w := NewWorker(st, nil, "model", 3, 2, zerolog.Nop())
	require.NoError(t, w.ReviewOne(context.Background(), 1))
	assert.Nil(t, st.reviewedStamp)
}

func TestWorker_ReviewOne_SkipsWhenTooFewMembers(t *testing.T) {
	st := &fakeReviewStore{cluster: store.Cluster{ID: 1, TweetCount: 2}}
	w := NewWorker(st, nil, "model", 3, 2, zerolog.Nop())
	require.NoError(t, w.ReviewOne(context.Background(), 1))
	assert.Nil(t, st.reviewedStamp)
}

func TestWorker_ReviewOne_RemovesFlaggedAndStampsReviewed(t *testing.T) {
	client := newLLM(t, `{"remove":[99]}`)
	st := &fakeReviewStore{
		cluster: store.Cluster{ID: 1, TweetCount: 5, NormalizedHeadline: "headline"},
		members: []store.Post{{ID: 99, RawText: "spam"}, {ID: 1, RawText: "on topic"}},
	}
	w := NewWorker(st, client, "model", 3, 2, zerolog.Nop())
	require.NoError(t, w.ReviewOne(context.Background(), 1))

	assert.Equal(t, []int64{99}, st.removed)
	assert.True(t, st.recomputed)
	require.NotNil(t, st.reviewedStamp)
}

func TestWorker_ReviewOne_StampsReviewedEvenWithNoRemovals(t *testing.T) {
	client := newLLM(t, `{"remove":[]}`)
	st := &fakeReviewStore{cluster: store.Cluster{ID: 1, TweetCount: 5}}
	w := NewWorker(st, client, "model", 3, 2, zerolog.Nop())
	require.NoError(t, w.ReviewOne(context.Background(), 1))

	assert.Empty(t, st.removed)
	assert.False(t, st.recomputed)
	require.NotNil(t, st.reviewedStamp)
}
