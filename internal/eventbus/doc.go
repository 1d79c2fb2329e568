// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package eventbus hands stage-to-stage work off over NATS JetStream via
// Watermill, the way ingest tells preprocess about a new post, cluster-sync
// tells review about a cluster worth a second look, and an operator-
// triggered backfill re-requests preprocessing for posts missing an
// embedding.
//
// The bus is a hand-off mechanism, never a source of truth: every event
// payload carries only identifiers, and a consumer that misses an event
// (or that crashes mid-processing) recovers by re-deriving pending work
// from the store rather than from redelivery alone. A DLQHandler catches
// events that exhaust their retry budget so a single poison event never
// blocks its topic's consumer.
//
// An optional WAL (wal.go) durably persists an event to a BadgerDB file
// before the NATS publish attempt and confirms (deletes) it afterward, so
// a crash between write and publish acknowledgment leaves the event
// recoverable on the next startup. It is off by default; Publisher.SetWAL
// turns it on when config.EventBusConfig.WALDir is set.
package eventbus
