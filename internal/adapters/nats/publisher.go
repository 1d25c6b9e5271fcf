package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/campusgeo/internal/core/domain"
)

const (
	// DetectionStream holds every published detection event.
	DetectionStream = "CAMPUS_DETECTIONS"
	// DetectionSubjects matches the per-building detection subjects.
	DetectionSubjects = "campus.detections.>"
)

// DetectionSubject is the subject a detection of label is published on.
func DetectionSubject(label domain.BuildingLabel) string {
	return "campus.detections." + string(label)
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS, enables JetStream and makes sure the
// detection stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := Connect(url, "campusgeo-publisher")
	if err != nil {
		return nil, err
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:       DetectionStream,
		Subjects:   []string{DetectionSubjects},
		Retention:  nats.LimitsPolicy,
		MaxAge:     24 * time.Hour,
		Storage:    nats.FileStorage,
		Duplicates: 2 * time.Minute,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishDetection publishes event on its building's subject. The event ID
// doubles as the JetStream message ID so retried publishes are de-duplicated.
func (p *Publisher) PublishDetection(ctx context.Context, event *domain.DetectionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal detection event: %w", err)
	}
	_, err = p.js.Publish(DetectionSubject(event.Building), data,
		nats.Context(ctx),
		nats.MsgId(event.ID),
	)
	if err != nil {
		return fmt.Errorf("publish detection event: %w", err)
	}
	return nil
}

// Ping reports whether the connection is up.
func (p *Publisher) Ping(_ context.Context) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats status %s", p.conn.Status())
	}
	return nil
}

// Conn exposes the underlying connection for plain subscriptions such as the
// WebSocket relay.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// Connect opens a plain NATS connection that keeps reconnecting in the
// background.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
