// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package preprocess

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/newsclust/internal/eventbus"
)

type fakeNormalizer struct {
	calledWith int64
	err        error
}

func (f *fakeNormalizer) NormalizeOne(_ context.Context, postID int64) error {
	f.calledWith = postID
	return f.err
}

type fakeEmbedder struct {
	calledWith int64
	err        error
}

func (f *fakeEmbedder) EmbedOne(_ context.Context, postID int64) error {
	f.calledWith = postID
	return f.err
}

func mustEvent(t *testing.T, postID string) *eventbus.Event {
	t.Helper()
	event, err := eventbus.NewEvent("evt-1", eventbus.TopicPostIngested, eventbus.PostEventPayload{PostID: postID})
	require.NoError(t, err)
	return event
}

func TestWorker_Handle_NormalizesThenEmbeds(t *testing.T) {
	norm := &fakeNormalizer{}
	emb := &fakeEmbedder{}
	worker := NewWorker(norm, emb, zerolog.Nop())

	err := worker.Handle(context.Background(), mustEvent(t, "42"))
	require.NoError(t, err)
	assert.EqualValues(t, 42, norm.calledWith)
	assert.EqualValues(t, 42, emb.calledWith)
}

func TestWorker_Handle_NormalizeFailureSkipsEmbed(t *testing.T) {
	norm := &fakeNormalizer{err: assertErr{"normalize failed"}}
	emb := &fakeEmbedder{}
	worker := NewWorker(norm, emb, zerolog.Nop())

	err := worker.Handle(context.Background(), mustEvent(t, "7"))
	assert.Error(t, err)
	assert.Zero(t, emb.calledWith)
}

func TestWorker_Handle_InvalidPostIDIsNoop(t *testing.T) {
	norm := &fakeNormalizer{}
	emb := &fakeEmbedder{}
	worker := NewWorker(norm, emb, zerolog.Nop())

	err := worker.Handle(context.Background(), mustEvent(t, "not-a-number"))
	require.NoError(t, err)
	assert.Zero(t, norm.calledWith)
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }
