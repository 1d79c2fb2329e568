// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPublisherConfig(t *testing.T) {
	cfg := DefaultPublisherConfig("nats://localhost:4222")
	assert.Equal(t, "nats://localhost:4222", cfg.URL)
	assert.Equal(t, -1, cfg.MaxReconnects)
	assert.True(t, cfg.EnableTrackMsgID)
	assert.Positive(t, cfg.ReconnectBuffer)
}

func TestDefaultSubscriberConfig(t *testing.T) {
	cfg := DefaultSubscriberConfig("nats://localhost:4222", "cluster-sync", "POSTS")
	assert.Equal(t, "cluster-sync", cfg.DurableName)
	assert.Equal(t, "cluster-sync", cfg.QueueGroup)
	assert.Equal(t, "POSTS", cfg.StreamName)
	assert.Equal(t, 5, cfg.MaxDeliver)
	assert.Positive(t, cfg.MaxAckPending)
}

// NewPublisher/NewSubscriber require a live NATS connection (JetStream
// provisioning happens at construction), so no test in this package
// constructs them.
