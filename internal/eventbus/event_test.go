// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvent_Validate(t *testing.T) {
	valid := &Event{ID: "evt-1", Topic: TopicPostIngested, Payload: []byte(`{}`)}
	assert.NoError(t, valid.Validate())

	noID := &Event{Topic: TopicPostIngested, Payload: []byte(`{}`)}
	assert.Error(t, noID.Validate())

	badTopic := &Event{ID: "evt-1", Topic: Topic("unknown.topic"), Payload: []byte(`{}`)}
	assert.Error(t, badTopic.Validate())

	emptyPayload := &Event{ID: "evt-1", Topic: TopicPostIngested}
	assert.Error(t, emptyPayload.Validate())
}

func TestEvent_Validate_AllKnownTopics(t *testing.T) {
	topics := []Topic{
		TopicPostIngested,
		TopicPostPreprocess,
		TopicClusterReviewRequested,
		TopicClusterBackfillRequested,
	}
	for _, topic := range topics {
		e := &Event{ID: "evt-1", Topic: topic, Payload: []byte(`{}`)}
		assert.NoError(t, e.Validate(), "topic %s should validate", topic)
	}
}
