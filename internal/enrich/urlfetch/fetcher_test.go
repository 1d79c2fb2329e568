// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package urlfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/newsclust/internal/config"
)

func TestFetcher_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		_, _ = w.Write([]byte(`<html><head><title>T</title></head><body><article><p>Hello   world.</p><p>Second paragraph.</p></article></body></html>`))
	}))
	defer srv.Close()

	f, err := New(config.ScrapingProxyConfig{UserAgent: "Mozilla/5.0 test", FetchTimeout: 5 * time.Second})
	require.NoError(t, err)

	result, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, result.Content, "Hello world.")
	assert.Contains(t, result.RawHTML, "<html>")
}

func TestFetcher_Fetch_NonExtractableReturnsSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	f, err := New(config.ScrapingProxyConfig{UserAgent: "test", FetchTimeout: 5 * time.Second})
	require.NoError(t, err)

	result, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, NotExtractable, result.Content)
}

func TestFetcher_Fetch_AllTiersFail(t *testing.T) {
	f, err := New(config.ScrapingProxyConfig{UserAgent: "test", FetchTimeout: 100 * time.Millisecond})
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "http://127.0.0.1:1/nope")
	assert.Error(t, err)
}

func TestShouldSkip(t *testing.T) {
	assert.True(t, shouldSkip("https://t.co/abc123"))
	assert.True(t, shouldSkip("https://www.youtube.com/watch?v=x"))
	assert.False(t, shouldSkip("https://example.com/article"))
}

func TestCollapseParagraphs(t *testing.T) {
	got := collapseParagraphs("Line one  with  spaces\nLine two\n\nLine three")
	assert.Equal(t, "Line one with spaces\n\nLine two\n\nLine three", got)
}

func TestErrorSentinel(t *testing.T) {
	got := ErrorSentinel(assertError{"boom"})
	assert.Equal(t, "Error fetching content: boom", got)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
