// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package normalize

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

type fakeContextStore struct {
	post           store.Post
	urlContents    []string
	imageSummaries []string
	err            error
	savedHeadline  string
	savedFacts     []string
}

func (f *fakeContextStore) PostNormalizeContext(_ context.Context, _ int64) (store.Post, []string, []string, error) {
	return f.post, f.urlContents, f.imageSummaries, f.err
}

func (f *fakeContextStore) SetPostNormalized(_ context.Context, _ int64, headline string, facts []string) error {
	f.savedHeadline = headline
	f.savedFacts = facts
	return nil
}

func TestWorker_NormalizeOne_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"headline\":\"Headline text\",\"facts\":[\"Fact one\"]}"}}]}`))
	}))
	defer srv.Close()

	client := llm.New(srv.URL, "key", 5*time.Second)
	st := &fakeContextStore{post: store.Post{ID: 1, RawText: "post text"}}
	worker := NewWorker(client, Options{Model: "m"}, st, zerolog.Nop())

	require.NoError(t, worker.NormalizeOne(context.Background(), 1))
	assert.Equal(t, "Headline text", st.savedHeadline)
	assert.Equal(t, []string{"Fact one"}, st.savedFacts)
}

func TestWorker_NormalizeOne_LoadErrorPropagates(t *testing.T) {
	st := &fakeContextStore{err: assertErr{"load failed"}}
	worker := NewWorker(llm.New("http://unused", "key", time.Second), Options{Model: "m"}, st, zerolog.Nop())

	err := worker.NormalizeOne(context.Background(), 1)
	assert.Error(t, err)
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }
