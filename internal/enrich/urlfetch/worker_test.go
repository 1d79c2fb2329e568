// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package urlfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/newsclust/internal/config"
	"github.com/tomtom215/newsclust/internal/store"
)

type fakePendingURLStore struct {
	pending []store.PostURL
	stored  map[int64]string
}

func newFakePendingURLStore(pending []store.PostURL) *fakePendingURLStore {
	return &fakePendingURLStore{pending: pending, stored: make(map[int64]string)}
}

func (f *fakePendingURLStore) PendingPostURLs(ctx context.Context, limit int) ([]store.PostURL, error) {
	return f.pending, nil
}

func (f *fakePendingURLStore) SetPostURLContent(ctx context.Context, id int64, content, rawHTML string) error {
	f.stored[id] = content
	return nil
}

func TestWorker_RecentlyFailedURL_SkipsRefetch(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	fetcher, err := New(config.ScrapingProxyConfig{UserAgent: "test", FetchTimeout: time.Second})
	require.NoError(t, err)

	url := srv.URL + "/skip-refetch-test"
	recentlyFailedURLs.Clear()

	st := newFakePendingURLStore([]store.PostURL{{ID: 1, URL: url}})
	w := NewWorker(fetcher, st, zerolog.Nop(), 10)
	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, int32(1), hits.Load(), "first failure hits the server once")

	st2 := newFakePendingURLStore([]store.PostURL{{ID: 2, URL: url}})
	w2 := NewWorker(fetcher, st2, zerolog.Nop(), 10)
	require.NoError(t, w2.Run(context.Background()))
	assert.Equal(t, int32(1), hits.Load(), "second attempt within the failure window should not hit the server again")
	assert.Contains(t, st2.stored[2], "failed recently")
}
