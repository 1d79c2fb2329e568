// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Complete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key", 5*time.Second)
	content, err := client.Complete(context.Background(), ChatRequest{Model: "m", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
}

func TestClient_Complete_RetriesOn429(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key", 5*time.Second)
	content, err := client.Complete(context.Background(), ChatRequest{Model: "m", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", content)
	assert.Equal(t, 2, attempts)
}

func TestClient_Complete_NoChoicesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key", 5*time.Second)
	_, err := client.Complete(context.Background(), ChatRequest{Model: "m", Text: "hi"})
	assert.Error(t, err)
}

func TestClient_Complete_UpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`boom`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key", 5*time.Second)
	_, err := client.Complete(context.Background(), ChatRequest{Model: "m", Text: "hi"})
	assert.Error(t, err)
}

func TestClient_Complete_WithImageURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"described"}}]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key", 5*time.Second)
	content, err := client.Complete(context.Background(), ChatRequest{Model: "m", Text: "describe", ImageURL: "https://example.com/i.png"})
	require.NoError(t, err)
	assert.Equal(t, "described", content)
}
