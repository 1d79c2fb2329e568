// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package eventbus

import (
	"fmt"

	"github.com/goccy/go-json"
)

// NewEvent builds and validates an Event from a typed payload.
func NewEvent(id string, topic Topic, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("eventbus: marshal payload: %w", err)
	}
	event := &Event{ID: id, Topic: topic, Payload: data}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return event, nil
}

// SerializeEvent marshals an Event envelope to JSON bytes for the wire.
func SerializeEvent(event *Event) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("eventbus: validate event: %w", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("eventbus: marshal event: %w", err)
	}
	return data, nil
}

// DeserializeEvent unmarshals JSON bytes into an Event envelope.
func DeserializeEvent(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("eventbus: unmarshal event: %w", err)
	}
	return &event, nil
}

// DecodePostPayload extracts a PostEventPayload from an Event.
func DecodePostPayload(event *Event) (PostEventPayload, error) {
	var p PostEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return p, fmt.Errorf("eventbus: decode post payload: %w", err)
	}
	return p, nil
}

// DecodeClusterReviewPayload extracts a ClusterReviewPayload from an Event.
func DecodeClusterReviewPayload(event *Event) (ClusterReviewPayload, error) {
	var p ClusterReviewPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return p, fmt.Errorf("eventbus: decode cluster review payload: %w", err)
	}
	return p, nil
}

// DecodeClusterBackfillPayload extracts a ClusterBackfillPayload from an Event.
func DecodeClusterBackfillPayload(event *Event) (ClusterBackfillPayload, error) {
	var p ClusterBackfillPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return p, fmt.Errorf("eventbus: decode cluster backfill payload: %w", err)
	}
	return p, nil
}
