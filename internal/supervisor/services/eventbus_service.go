// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package services

import "context"

// EventHandlerRunner matches internal/eventbus.EventHandler's Run method,
// kept as an interface here so this package never imports internal/eventbus
// directly.
type EventHandlerRunner interface {
	Run(ctx context.Context) error
}

// EventBusService wraps one topic's EventHandler as a supervised service.
// One instance is added per topic (post.ingested, post.preprocess,
// cluster.review.requested, cluster.backfill.requested) so a poison
// consumer on one topic never takes the others down with it.
//
// EventHandler.Run already blocks on ctx and returns ctx.Err() on
// cancellation, the same contract suture.Service expects, so this wrapper
// only adds the String() identity suture logs services by.
type EventBusService struct {
	handler EventHandlerRunner
	name    string
}

// NewEventBusService wraps handler under name (typically the topic string)
// for logging.
func NewEventBusService(handler EventHandlerRunner, name string) *EventBusService {
	return &EventBusService{handler: handler, name: name}
}

// Serve implements suture.Service.
func (s *EventBusService) Serve(ctx context.Context) error {
	return s.handler.Run(ctx)
}

// String implements fmt.Stringer.
func (s *EventBusService) String() string {
	return "eventbus-" + s.name
}
