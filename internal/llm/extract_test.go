// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_WholeString(t *testing.T) {
	got, err := ExtractJSON(`{"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, got)
}

func TestExtractJSON_FencedBlock(t *testing.T) {
	got, err := ExtractJSON("here is the result:\n```json\n{\"a\":1}\n```\nthanks")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, got)
}

func TestExtractJSON_BraceToBrace(t *testing.T) {
	got, err := ExtractJSON(`sure, the answer is {"a":1} as requested.`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, got)
}

func TestExtractJSON_NoJSONReturnsError(t *testing.T) {
	_, err := ExtractJSON("no json here at all")
	assert.Error(t, err)
}

func TestExtractJSON_EmptyReturnsError(t *testing.T) {
	_, err := ExtractJSON("   ")
	assert.Error(t, err)
}
