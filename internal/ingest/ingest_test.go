// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package ingest

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/newsclust/internal/eventbus"
	"github.com/tomtom215/newsclust/internal/search"
	"github.com/tomtom215/newsclust/internal/store"
)

type fakePostStore struct {
	nextID            int64
	byExternalID      map[string]store.Post
	needingNormalize  []int64
	upsertImages      []store.PostImage
	upsertURLs        []store.PostURL
	upsertVideos      []store.PostVideo
	upsertPostsErr    error
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{byExternalID: make(map[string]store.Post)}
}

func (f *fakePostStore) UpsertPosts(ctx context.Context, posts []store.Post) (store.UpsertResult, error) {
	if f.upsertPostsErr != nil {
		return store.UpsertResult{}, f.upsertPostsErr
	}
	var result store.UpsertResult
	for _, p := range posts {
		if _, exists := f.byExternalID[p.ExternalID]; exists {
			continue
		}
		f.nextID++
		p.ID = f.nextID
		f.byExternalID[p.ExternalID] = p
		result.Inserted = append(result.Inserted, p)
	}
	return result, nil
}

func (f *fakePostStore) UpsertPostURLs(ctx context.Context, urls []store.PostURL) error {
	f.upsertURLs = append(f.upsertURLs, urls...)
	return nil
}

func (f *fakePostStore) UpsertPostImages(ctx context.Context, images []store.PostImage) error {
	f.upsertImages = append(f.upsertImages, images...)
	return nil
}

func (f *fakePostStore) UpsertPostVideos(ctx context.Context, videos []store.PostVideo) error {
	f.upsertVideos = append(f.upsertVideos, videos...)
	return nil
}

func (f *fakePostStore) GetPostsNeedingNormalize(ctx context.Context, postIDs []int64) ([]int64, error) {
	if f.needingNormalize != nil {
		return f.needingNormalize, nil
	}
	return postIDs, nil
}

type fakePublisher struct {
	events []*eventbus.Event
}

func (f *fakePublisher) PublishEvent(ctx context.Context, event *eventbus.Event) error {
	f.events = append(f.events, event)
	return nil
}

type fakeSearcher struct {
	pages map[string][]search.SearchPage // query -> sequence of pages, popped in order
	calls int
	err   error
}

func (f *fakeSearcher) SearchByQuery(ctx context.Context, query, cursor string) (search.SearchPage, error) {
	f.calls++
	if f.err != nil {
		return search.SearchPage{}, f.err
	}
	pages := f.pages[query]
	idx := 0
	if cursor != "" {
		for i, p := range pages {
			if p.NextCursor == cursor {
				idx = i + 1
				break
			}
		}
	}
	if idx >= len(pages) {
		return search.SearchPage{}, nil
	}
	return pages[idx], nil
}

func TestIngestPosts_DedupeAndInsert(t *testing.T) {
	st := newFakePostStore()
	pub := &fakePublisher{}
	logger := zerolog.Nop()

	posts := []search.RawPost{
		{ExternalID: "1", AuthorHandle: "h1", Text: "a", CreatedAt: time.Now()},
		{ExternalID: "1", AuthorHandle: "h1", Text: "a", CreatedAt: time.Now()},
		{ExternalID: "2", AuthorHandle: "h2", Text: "b", CreatedAt: time.Now(), ImageURLs: []string{"http://img"}},
	}

	inserted, err := ingestPosts(context.Background(), st, pub, logger, posts)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Len(t, pub.events, 2)
	assert.Len(t, st.upsertImages, 1)
}

func TestIngestPosts_EmptyInput(t *testing.T) {
	st := newFakePostStore()
	pub := &fakePublisher{}
	inserted, err := ingestPosts(context.Background(), st, pub, zerolog.Nop(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.Empty(t, pub.events)
}

func TestIngestPosts_ReingestSameWindowYieldsZero(t *testing.T) {
	st := newFakePostStore()
	pub := &fakePublisher{}
	logger := zerolog.Nop()

	// External ids differ from test to test: recentExternalIDs is
	// package-level and keeps ids recorded by earlier tests.
	posts := []search.RawPost{{ExternalID: "reingest-1", AuthorHandle: "h1", Text: "a"}}
	_, err := ingestPosts(context.Background(), st, pub, logger, posts)
	require.NoError(t, err)

	inserted, err := ingestPosts(context.Background(), st, pub, logger, posts)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted, "re-running ingest over the same posts must yield zero inserts")
}

func TestAuthorBatchWorker_PartitionsAndAccumulates(t *testing.T) {
	handles := []string{"h1", "h2", "h3"}
	query := unionQuery(handles)

	searcher := &fakeSearcher{pages: map[string][]search.SearchPage{
		query: {{Posts: []search.RawPost{{ExternalID: "author-1", AuthorHandle: "h1"}}}},
	}}
	st := newFakePostStore()
	pub := &fakePublisher{}

	worker := NewAuthorBatchWorker(searcher, st, pub, zerolog.Nop(), handles, 8, time.Millisecond)
	err := worker.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, searcher.calls)
	assert.Len(t, pub.events, 1)
}

func TestAuthorBatchWorker_AllBatchesFailingFailsRun(t *testing.T) {
	handles := []string{"h1", "h2", "h3", "h4", "h5", "h6", "h7", "h8", "h9"}
	searcher := &fakeSearcher{err: errors.New("provider down")}
	st := newFakePostStore()
	pub := &fakePublisher{}

	worker := NewAuthorBatchWorker(searcher, st, pub, zerolog.Nop(), handles, 8, time.Millisecond)
	err := worker.Run(context.Background())
	assert.Error(t, err, "all batches failing should surface as a run error")
}

func TestKeywordWorker_Paginates(t *testing.T) {
	keywords := []string{"token", "airdrop"}
	query := "token OR airdrop"

	searcher := &fakeSearcher{pages: map[string][]search.SearchPage{
		query: {
			{Posts: []search.RawPost{{ExternalID: "kw-1"}}, NextCursor: "p2", HasMore: true},
			{Posts: []search.RawPost{{ExternalID: "kw-2"}}, HasMore: false},
		},
	}}
	st := newFakePostStore()
	pub := &fakePublisher{}

	worker := NewKeywordWorker(searcher, st, pub, zerolog.Nop(), keywords, 2)
	err := worker.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, searcher.calls)
	assert.Len(t, pub.events, 2)
}

func TestKeywordWorker_StopsAtPageCount(t *testing.T) {
	keywords := []string{"token"}
	query := "token"

	searcher := &fakeSearcher{pages: map[string][]search.SearchPage{
		query: {
			{Posts: []search.RawPost{{ExternalID: "1"}}, NextCursor: "p2", HasMore: true},
			{Posts: []search.RawPost{{ExternalID: "2"}}, NextCursor: "p3", HasMore: true},
			{Posts: []search.RawPost{{ExternalID: "3"}}, HasMore: false},
		},
	}}
	st := newFakePostStore()
	pub := &fakePublisher{}

	worker := NewKeywordWorker(searcher, st, pub, zerolog.Nop(), keywords, 2)
	err := worker.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, searcher.calls, "page count caps pagination at 2")
}

func TestRecordWorkerHealth_WarnsOnSustainedFailureRate(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	recordWorkerHealth(logger, "test_worker_sustained", 2, 2)
	recordWorkerHealth(logger, "test_worker_sustained", 2, 2)
	assert.Contains(t, buf.String(), "sustained provider failure rate", "failure rate at 100% over 4 attempts should warn")
}

func TestRecordWorkerHealth_NoWarningBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	recordWorkerHealth(logger, "test_worker_healthy", 10, 1)
	assert.NotContains(t, buf.String(), "sustained provider failure rate", "10% failure rate should not warn")
}

func TestRecordWorkerHealth_NoAttemptsIsNoop(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	recordWorkerHealth(logger, "test_worker_idle", 0, 0)
	assert.Empty(t, buf.String())
}
