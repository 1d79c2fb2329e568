// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/newsclust/internal/metrics"
)

// SubscriberConfig configures a durable JetStream consumer.
type SubscriberConfig struct {
	URL              string
	DurableName      string
	QueueGroup       string
	StreamName       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	MaxAckPending    int
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration
}

// DefaultSubscriberConfig returns production defaults for durableName,
// binding to streamName when non-empty (required for topics that are not
// known statically at provision time).
func DefaultSubscriberConfig(url, durableName, streamName string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		DurableName:      durableName,
		QueueGroup:       durableName,
		StreamName:       streamName,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		MaxDeliver:       5,
		MaxAckPending:    64,
		CloseTimeout:     10 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
	}
}

// Subscriber wraps a Watermill NATS JetStream subscriber configured for
// durable, queue-grouped, at-least-once consumption: a nacked or
// unacknowledged message is redelivered, up to MaxDeliver times.
type Subscriber struct {
	subscriber message.Subscriber
	config     SubscriberConfig
	logger     watermill.LoggerAdapter
}

// NewSubscriber creates a durable JetStream subscriber.
func NewSubscriber(cfg SubscriberConfig, logger watermill.LoggerAdapter) (*Subscriber, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS subscriber disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS subscriber reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(cfg.MaxDeliver),
		natsgo.MaxAckPending(cfg.MaxAckPending),
		natsgo.AckWait(cfg.AckWaitTimeout),
		natsgo.DeliverNew(),
	}

	autoProvision := true
	if cfg.StreamName != "" {
		subOpts = append(subOpts, natsgo.BindStream(cfg.StreamName))
		autoProvision = false
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    autoProvision,
			AckAsync:         false,
			SubscribeOptions: subOpts,
			DurablePrefix:    cfg.DurableName,
		},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("eventbus: create watermill subscriber: %w", err)
	}

	return &Subscriber{subscriber: sub, config: cfg, logger: logger}, nil
}

// Subscribe returns a channel of raw Watermill messages for topic.
func (s *Subscriber) Subscribe(ctx context.Context, topic Topic) (<-chan *message.Message, error) {
	return s.subscriber.Subscribe(ctx, string(topic))
}

// Close gracefully shuts down the subscriber.
func (s *Subscriber) Close() error {
	return s.subscriber.Close()
}

// EventHandlerFunc processes a decoded Event. A non-nil return nacks the
// message for JetStream redelivery.
type EventHandlerFunc func(ctx context.Context, event *Event) error

// EventHandler deserializes messages on a topic into Events before
// invoking a typed handler, and acks/nacks based on its result.
type EventHandler struct {
	subscriber *Subscriber
	topic      Topic
	fn         EventHandlerFunc
	logger     watermill.LoggerAdapter
}

// NewEventHandler creates a handler bound to topic.
func (s *Subscriber) NewEventHandler(topic Topic) *EventHandler {
	return &EventHandler{subscriber: s, topic: topic, logger: s.logger}
}

// Handle sets the event-processing function.
func (h *EventHandler) Handle(fn EventHandlerFunc) *EventHandler {
	h.fn = fn
	return h
}

// Run subscribes and processes messages until ctx is cancelled, or the
// message channel closes.
func (h *EventHandler) Run(ctx context.Context) error {
	messages, err := h.subscriber.Subscribe(ctx, h.topic)
	if err != nil {
		return fmt.Errorf("eventbus: subscribe to %s: %w", h.topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			h.processMessage(ctx, msg)
		}
	}
}

func (h *EventHandler) processMessage(ctx context.Context, msg *message.Message) {
	start := time.Now()
	event, err := DeserializeEvent(msg.Payload)
	if err != nil {
		h.logger.Error("eventbus: dropping unparseable message", err, watermill.LogFields{
			"message_uuid": msg.UUID,
			"topic":        string(h.topic),
		})
		// A poison message can never deserialize differently on redelivery;
		// ack it so it doesn't wedge the consumer forever.
		msg.Ack()
		return
	}

	if h.fn == nil {
		msg.Ack()
		return
	}

	if err := h.fn(ctx, event); err != nil {
		h.logger.Error("eventbus: handler failed", err, watermill.LogFields{
			"event_id": event.ID,
			"topic":    string(h.topic),
		})
		msg.Nack()
		return
	}

	metrics.RecordEventConsumed(string(h.topic), time.Since(start))
	msg.Ack()
}
