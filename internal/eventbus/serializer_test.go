// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package eventbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEvent_RoundTrip(t *testing.T) {
	event, err := NewEvent("evt-1", TopicPostIngested, PostEventPayload{PostID: "post-1", Reason: "ingest"})
	require.NoError(t, err)

	data, err := SerializeEvent(event)
	require.NoError(t, err)

	decoded, err := DeserializeEvent(data)
	require.NoError(t, err)
	require.Equal(t, event.ID, decoded.ID)
	require.Equal(t, event.Topic, decoded.Topic)

	payload, err := DecodePostPayload(decoded)
	require.NoError(t, err)
	require.Equal(t, "post-1", payload.PostID)
	require.Equal(t, "ingest", payload.Reason)
}

func TestNewEvent_ClusterReviewPayload(t *testing.T) {
	event, err := NewEvent("evt-2", TopicClusterReviewRequested, ClusterReviewPayload{ClusterID: 42})
	require.NoError(t, err)

	payload, err := DecodeClusterReviewPayload(event)
	require.NoError(t, err)
	require.Equal(t, int64(42), payload.ClusterID)
}

func TestNewEvent_ClusterBackfillPayload(t *testing.T) {
	event, err := NewEvent("evt-3", TopicClusterBackfillRequested, ClusterBackfillPayload{
		Limit:         100,
		LookbackHours: 48,
		AllTweets:     true,
	})
	require.NoError(t, err)

	payload, err := DecodeClusterBackfillPayload(event)
	require.NoError(t, err)
	require.Equal(t, 100, payload.Limit)
	require.Equal(t, 48, payload.LookbackHours)
	require.True(t, payload.AllTweets)
}

func TestDeserializeEvent_InvalidJSON(t *testing.T) {
	_, err := DeserializeEvent([]byte("not json"))
	require.Error(t, err)
}

func TestSerializeEvent_InvalidEventRejected(t *testing.T) {
	_, err := SerializeEvent(&Event{ID: "", Topic: TopicPostIngested, Payload: []byte(`{}`)})
	require.Error(t, err)
}
