package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/campusgeo/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
	subs    []*nats.Subscription
}

// NewSubscriber connects to NATS. With a durable name the consumer resumes
// where it left off; without one it only sees events published from now on.
func NewSubscriber(url, durable string) (*Subscriber, error) {
	conn, err := Connect(url, "campusgeo-subscriber")
	if err != nil {
		return nil, err
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js, durable: durable}, nil
}

// SubscribeDetections delivers every detection event to handler. Malformed
// messages are terminated, handler errors are redelivered up to three times.
func (s *Subscriber) SubscribeDetections(ctx context.Context, handler func(ctx context.Context, event *domain.DetectionEvent) error) error {
	opts := []nats.SubOpt{nats.ManualAck(), nats.MaxDeliver(3)}
	if s.durable != "" {
		opts = append(opts, nats.Durable(s.durable))
	} else {
		opts = append(opts, nats.DeliverNew())
	}

	sub, err := s.js.Subscribe(DetectionSubjects, func(msg *nats.Msg) {
		var event domain.DetectionEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Warn("drop malformed detection event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &event); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}, opts...)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", DetectionSubjects, err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
