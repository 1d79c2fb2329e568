// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package eventbus

import "fmt"

// Topic names the four events the pipeline hands off between stages. The
// event bus is used only for hand-off, never for shared state — the store
// remains the single source of truth.
type Topic string

const (
	// TopicPostIngested is emitted per newly inserted post and consumed by
	// preprocess.
	TopicPostIngested Topic = "post.ingested"
	// TopicPostPreprocess carries the same payload as TopicPostIngested
	// plus a reason string, for observability when preprocess is
	// re-triggered outside the ingest path (e.g. backfill).
	TopicPostPreprocess Topic = "post.preprocess"
	// TopicClusterReviewRequested fires from cluster-sync Step F.
	TopicClusterReviewRequested Topic = "cluster.review.requested"
	// TopicClusterBackfillRequested is human-triggered; it re-emits
	// TopicPostPreprocess for candidate posts missing an embedding.
	TopicClusterBackfillRequested Topic = "cluster.backfill.requested"
)

// Event is the envelope carried over the bus. Payload is one of the
// Post*Payload / Cluster*Payload structs below, round-tripped through JSON
// so at-least-once redelivery and cross-process hand-off never depend on Go
// type identity.
type Event struct {
	ID      string `json:"id"`
	Topic   Topic  `json:"topic"`
	Payload []byte `json:"payload"`
}

// PostEventPayload is the payload for post.ingested and post.preprocess.
type PostEventPayload struct {
	PostID string `json:"post_id"`
	Reason string `json:"reason,omitempty"`
}

// ClusterReviewPayload is the payload for cluster.review.requested.
type ClusterReviewPayload struct {
	ClusterID int64 `json:"cluster_id"`
}

// ClusterBackfillPayload is the payload for cluster.backfill.requested.
type ClusterBackfillPayload struct {
	Limit         int  `json:"limit,omitempty"`
	LookbackHours int  `json:"lookback_hours,omitempty"`
	AllTweets     bool `json:"all_tweets,omitempty"`
}

// Validate checks that an event carries a known topic and a non-empty
// payload before marshaling.
func (e *Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("eventbus: event id is required")
	}
	switch e.Topic {
	case TopicPostIngested, TopicPostPreprocess, TopicClusterReviewRequested, TopicClusterBackfillRequested:
	default:
		return fmt.Errorf("eventbus: unknown topic %q", e.Topic)
	}
	if len(e.Payload) == 0 {
		return fmt.Errorf("eventbus: event %s has empty payload", e.ID)
	}
	return nil
}
