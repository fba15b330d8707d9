// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/fsrf-audit/internal/audit"
	"github.com/tomtom215/fsrf-audit/internal/config"
	"github.com/tomtom215/fsrf-audit/internal/logging"
	"github.com/tomtom215/fsrf-audit/internal/metrics"
)

// drainTimeout bounds publishing of queued events after shutdown starts.
const drainTimeout = 5 * time.Second

// Config configures a Publisher.
type Config struct {
	URL              string
	Subject          string
	QueueSize        int
	MaxReconnects    int
	ReconnectWait    time.Duration
	BreakerFailures  uint32
	BreakerOpenDelay time.Duration
}

// ConfigFrom converts the eventbus config section.
func ConfigFrom(cfg *config.EventBusConfig) Config {
	return Config{
		URL:              cfg.URL,
		Subject:          cfg.Subject,
		QueueSize:        cfg.QueueSize,
		MaxReconnects:    cfg.MaxReconnects,
		ReconnectWait:    cfg.ReconnectWait,
		BreakerFailures:  cfg.BreakerFailures,
		BreakerOpenDelay: cfg.BreakerOpenDelay,
	}
}

// Publisher queues audit events and publishes them to NATS.
type Publisher struct {
	cfg       Config
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[interface{}]
	queue     chan audit.Event

	mu     sync.RWMutex
	closed bool
}

// NewPublisher connects to NATS at cfg.URL. The connection retries in the
// background, so an unreachable server does not fail start-up.
func NewPublisher(cfg Config, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = logging.NewWatermillAdapter()
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("fsrf-audit"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return NewPublisherWith(pub, cfg), nil
}

// NewPublisherWith wraps an existing Watermill publisher.
func NewPublisherWith(pub message.Publisher, cfg Config) *Publisher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerOpenDelay <= 0 {
		cfg.BreakerOpenDelay = 30 * time.Second
	}
	if cfg.Subject == "" {
		cfg.Subject = "fsrf.audit.events"
	}

	return &Publisher{
		cfg:       cfg,
		publisher: pub,
		breaker:   newBreaker(cfg),
		queue:     make(chan audit.Event, cfg.QueueSize),
	}
}

func newBreaker(cfg Config) *gobreaker.CircuitBreaker[interface{}] {
	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "eventbus",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Event bus circuit breaker state changed")
		},
	})
}

// Deliver enqueues ev without blocking. Implements audit.Sink.
func (p *Publisher) Deliver(ctx context.Context, ev audit.Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}

	select {
	case p.queue <- ev:
	default:
		metrics.EventBusPublishFailures.WithLabelValues("queue_full").Inc()
		logging.Ctx(ctx).Warn().Str("event_id", ev.ID).Msg("Event bus queue full, event not published")
	}
}

// Serve publishes queued events until ctx is cancelled, then drains what
// is left for a short while. It is run by the supervisor.
func (p *Publisher) Serve(ctx context.Context) error {
	for {
		select {
		case ev := <-p.queue:
			p.publishLogged(ctx, ev)
		case <-ctx.Done():
			p.drain()
			return nil
		}
	}
}

func (p *Publisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case ev := <-p.queue:
			p.publishLogged(ctx, ev)
		case <-ctx.Done():
			return
		default:
			return
		}
	}
}

func (p *Publisher) publishLogged(ctx context.Context, ev audit.Event) {
	if err := p.Publish(ctx, ev); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("event_id", ev.ID).Msg("Event bus publish failed")
	}
}

// Publish sends ev immediately through the circuit breaker.
func (p *Publisher) Publish(_ context.Context, ev audit.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(ev.ID, data)
	msg.Metadata.Set(natsgo.MsgIdHdr, ev.ID)
	msg.Metadata.Set("action", string(ev.Action))
	msg.Metadata.Set("severity", string(ev.Severity))
	msg.Metadata.Set("status", string(ev.Status))
	msg.Metadata.Set("resource_type", string(ev.ResourceType))

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.publisher.Publish(p.Topic(ev), msg)
	})
	breakerOpen := errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
	metrics.RecordEventBusPublish(err, breakerOpen)
	if err != nil {
		return fmt.Errorf("publish event %s: %w", ev.ID, err)
	}
	return nil
}

// Topic returns the subject ev is published on. Resource types that are not
// a single plain subject token go to the base subject.
func (p *Publisher) Topic(ev audit.Event) string {
	if !subjectToken(string(ev.ResourceType)) {
		return p.cfg.Subject
	}
	return p.cfg.Subject + "." + string(ev.ResourceType)
}

// subjectToken reports whether s is non-empty and made only of ASCII
// letters, digits, '-' and '_'. NATS treats '.', '*', '>' and whitespace
// specially.
func subjectToken(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// BreakerState reports the circuit breaker state: closed, half-open or open.
func (p *Publisher) BreakerState() string {
	return p.breaker.State().String()
}

// Pending returns the number of queued events.
func (p *Publisher) Pending() int {
	return len(p.queue)
}

// String names the service in supervisor logs.
func (p *Publisher) String() string {
	return "eventbus-publisher"
}

// Close stops accepting events and closes the NATS connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
