// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package normalize

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/newsclust/internal/llm"
)

func llmReturning(t *testing.T, content string) *llm.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":` + jsonQuote(content) + `}}]}`))
	}))
	t.Cleanup(srv.Close)
	return llm.New(srv.URL, "key", 5*time.Second)
}

func jsonQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func TestNormalize_SkipsEmptyInput(t *testing.T) {
	client := llmReturning(t, `should not be called`)
	result, err := Normalize(context.Background(), client, Options{Model: "m"}, Input{})
	require.NoError(t, err)
	assert.Equal(t, FallbackHeadline, result.Headline)
}

func TestNormalize_DedupesAndCapsFacts(t *testing.T) {
	client := llmReturning(t, `{"headline":"Company X reports earnings","facts":["Revenue rose 10%","Revenue rose 10%","Net income fell","CEO resigned"]}`)
	result, err := Normalize(context.Background(), client, Options{Model: "m", MaxFacts: 2}, Input{PostText: "some post"})
	require.NoError(t, err)
	assert.Equal(t, "Company X reports earnings", result.Headline)
	assert.Equal(t, []string{"Revenue rose 10%", "Net income fell"}, result.Facts)
}

func TestNormalize_EmptyHeadlineFallsBackToFirstFact(t *testing.T) {
	client := llmReturning(t, `{"headline":"","facts":["Only fact here"]}`)
	result, err := Normalize(context.Background(), client, Options{Model: "m"}, Input{PostText: "post"})
	require.NoError(t, err)
	assert.Equal(t, "Only fact here", result.Headline)
}

func TestNormalize_EmptyHeadlineNoFactsFallsBackToNeutral(t *testing.T) {
	client := llmReturning(t, `{"headline":"","facts":[]}`)
	result, err := Normalize(context.Background(), client, Options{Model: "m"}, Input{PostText: "post"})
	require.NoError(t, err)
	assert.Equal(t, FallbackHeadline, result.Headline)
}

func TestNormalize_HeadlineTruncatedAtMaxLen(t *testing.T) {
	long := strings.Repeat("a", 300)
	client := llmReturning(t, `{"headline":"`+long+`","facts":[]}`)
	result, err := Normalize(context.Background(), client, Options{Model: "m", HeadlineMaxLen: 240}, Input{PostText: "post"})
	require.NoError(t, err)
	assert.Len(t, result.Headline, 240)
}

func TestNormalize_MalformedJSONReturnsError(t *testing.T) {
	client := llmReturning(t, `not json`)
	_, err := Normalize(context.Background(), client, Options{Model: "m"}, Input{PostText: "post"})
	assert.Error(t, err)
}
