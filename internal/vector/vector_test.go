// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package vector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"mismatched length", []float32{1, 2}, []float32{1}, 0},
		{"empty", []float32{}, []float32{}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"scaled identical", []float32{2, 0}, []float32{4, 0}, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Cosine(c.a, c.b)
			assert.InDelta(t, c.want, got, 1e-9)
		})
	}
}

func TestCosine_Symmetric(t *testing.T) {
	a := []float32{0.3, 0.7, -0.2}
	b := []float32{0.1, -0.5, 0.9}
	require.InDelta(t, Cosine(a, b), Cosine(b, a), 1e-9)
}

func TestMean(t *testing.T) {
	got := Mean([][]float32{{1, 2, 3}, {3, 4, 5}})
	assert.InDeltaSlice(t, []float64{2, 3, 4}, toFloat64(got), 1e-6)
}

func TestMean_Empty(t *testing.T) {
	assert.Nil(t, Mean(nil))
}

func TestMean_RaggedRows(t *testing.T) {
	got := Mean([][]float32{{1, 2}, {3}})
	assert.InDeltaSlice(t, []float64{2, 1}, toFloat64(got), 1e-6)
}

func TestWeightedMean(t *testing.T) {
	vecs := [][]float32{{1, 0}, {0, 1}}
	weights := []float64{3, 1}
	got := WeightedMean(vecs, weights)
	assert.InDeltaSlice(t, []float64{0.75, 0.25}, toFloat64(got), 1e-6)
}

func TestWeightedMean_ZeroTotalFallsBackToMean(t *testing.T) {
	vecs := [][]float32{{1, 0}, {0, 1}}
	weights := []float64{0, 0}
	got := WeightedMean(vecs, weights)
	want := Mean(vecs)
	assert.Equal(t, want, got)
}

func TestWeightedMean_MismatchedLengthFallsBack(t *testing.T) {
	vecs := [][]float32{{1, 0}, {0, 1}}
	got := WeightedMean(vecs, []float64{1})
	assert.Equal(t, Mean(vecs), got)
}

func TestL2Norm(t *testing.T) {
	assert.InDelta(t, 5.0, L2Norm([]float32{3, 4}), 1e-9)
	assert.InDelta(t, 0.0, L2Norm(nil), 1e-9)
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func TestCosine_NaNFree(t *testing.T) {
	got := Cosine([]float32{0, 0}, []float32{0, 0})
	require.False(t, math.IsNaN(got))
}
