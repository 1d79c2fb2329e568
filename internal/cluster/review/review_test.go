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

	"github.com/stretchr/testify/assert"

	"github.com/tomtom215/newsclust/internal/llm"
	"github.com/tomtom215/newsclust/internal/store"
)

func llmReturning(t *testing.T, content string) *llm.Client {
	t.Helper()
	escaped := ""
	for _, r := range content {
		switch r {
		case '"':
			escaped += `\"`
		case '\\':
			escaped += `\\`
		default:
			escaped += string(r)
		}
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"` + escaped + `"}}]}`))
	}))
	t.Cleanup(srv.Close)
	return llm.New(srv.URL, "key", 0)
}

func TestProposeRemovals_ParsesRemoveList(t *testing.T) {
	client := llmReturning(t, `{"remove":[42,43]}`)
	members := []store.Post{{ID: 42, RawText: "off topic"}, {ID: 1, RawText: "on topic"}}
	out := ProposeRemovals(context.Background(), client, "model", "headline", members)
	assert.Equal(t, []int64{42, 43}, out)
}

func TestProposeRemovals_MalformedResponseReturnsNil(t *testing.T) {
	client := llmReturning(t, `not json at all`)
	out := ProposeRemovals(context.Background(), client, "model", "headline", nil)
	assert.Nil(t, out)
}

func TestProposeRemovals_CallFailureReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	client := llm.New(srv.URL, "key", 0)
	out := ProposeRemovals(context.Background(), client, "model", "headline", nil)
	assert.Nil(t, out)
}
