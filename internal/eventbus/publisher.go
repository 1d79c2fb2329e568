// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/newsclust/internal/metrics"
)

// PublisherConfig configures the NATS JetStream connection a Publisher
// opens.
type PublisherConfig struct {
	URL               string
	MaxReconnects     int
	ReconnectWait     time.Duration
	ReconnectBuffer   int
	EnableTrackMsgID  bool
}

// DefaultPublisherConfig returns production-sized reconnection defaults.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024,
		EnableTrackMsgID: true,
	}
}

// Publisher wraps a Watermill NATS JetStream publisher with circuit-breaker
// protection, the way a hand-off bus used only for stage transitions (never
// shared state) should fail closed rather than wedge a pipeline stage.
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
	wal            *WAL
	mu             sync.RWMutex
	closed         bool
	logger         watermill.LoggerAdapter
}

// NewPublisher opens a resilient Watermill NATS JetStream publisher.
func NewPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			TrackMsgId:    cfg.EnableTrackMsgID,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("eventbus: create watermill publisher: %w", err)
	}

	return &Publisher{publisher: pub, logger: logger}, nil
}

// SetCircuitBreaker installs a circuit breaker around Publish calls.
func (p *Publisher) SetCircuitBreaker(cb *gobreaker.CircuitBreaker[interface{}]) {
	p.circuitBreaker = cb
}

// SetWAL installs a durable write-ahead log in front of PublishEvent. Every
// event is written to wal before the NATS publish attempt and confirmed
// (deleted) after a successful publish; a failed publish leaves the entry
// on disk for startup recovery via wal.Pending.
func (p *Publisher) SetWAL(wal *WAL) {
	p.wal = wal
}

// Publish sends a raw Watermill message to topic, setting the NATS
// dedup header from the message UUID when not already present.
func (p *Publisher) Publish(ctx context.Context, topic Topic, msg *message.Message) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("eventbus: publisher is closed")
	}
	p.mu.RUnlock()

	if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
		msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	}

	var err error
	if p.circuitBreaker != nil {
		_, err = p.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, p.publisher.Publish(string(topic), msg)
		})
	} else {
		err = p.publisher.Publish(string(topic), msg)
	}

	if err == nil {
		metrics.RecordEventPublished(string(topic))
	}
	return err
}

// PublishEvent serializes and publishes event to its own topic. When a WAL
// is installed (SetWAL), the event is durably written before the publish
// attempt and confirmed afterward; a publish failure leaves the WAL entry
// in place for replay on the next Pending() call rather than losing the
// event to an unacked in-flight NATS request.
func (p *Publisher) PublishEvent(ctx context.Context, event *Event) error {
	data, err := SerializeEvent(event)
	if err != nil {
		return err
	}

	if p.wal != nil {
		if err := p.wal.Write(event); err != nil {
			return fmt.Errorf("eventbus: wal write: %w", err)
		}
	}

	msg := message.NewMessage(event.ID, data)
	if err := p.Publish(ctx, event.Topic, msg); err != nil {
		return err
	}

	if p.wal != nil {
		if err := p.wal.Confirm(event.ID); err != nil {
			p.logger.Error("eventbus: wal confirm failed", err, watermill.LogFields{"event_id": event.ID})
		}
	}
	return nil
}

// Close gracefully shuts down the publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}

// WatermillPublisher exposes the underlying message.Publisher for callers
// that need the native Watermill type (e.g. poison-queue middleware).
func (p *Publisher) WatermillPublisher() message.Publisher {
	return p.publisher
}
