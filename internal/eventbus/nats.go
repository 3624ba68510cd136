// Package eventbus publishes completed generations and runs to NATS.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects and the JetStream stream that captures them.
const (
	SubjectGenerationCompleted = "scriptgen.generation.completed"
	SubjectRunCompleted        = "scriptgen.run.completed"
	StreamName                 = "SCRIPTGEN"
	streamSubjects             = "scriptgen.>"
)

// Publisher sends domain events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close()
}

// Event wraps a payload with metadata.
type Event struct {
	ID        string          `json:"id"`
	Subject   string          `json:"subject"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent encodes payload into an event for subject.
func NewEvent(subject string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", subject, err)
	}
	return Event{
		ID:        uuid.NewString(),
		Subject:   subject,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// NATSPublisher publishes through JetStream when the server supports it and
// through core NATS otherwise.
type NATSPublisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *zap.Logger
}

// Connect dials natsURL and prepares the SCRIPTGEN stream.
func Connect(natsURL string, logger *zap.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("scriptgen"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	p := &NATSPublisher{nc: nc, logger: logger}
	js, err := nc.JetStream()
	if err == nil {
		err = ensureStream(js)
	}
	if err != nil {
		logger.Warn("JetStream unavailable, publishing with core NATS", zap.Error(err))
		return p, nil
	}
	p.js = js
	logger.Info("NATS and JetStream initialized", zap.String("stream", StreamName))
	return p, nil
}

func ensureStream(js nats.JetStreamContext) error {
	_, err := js.StreamInfo(StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("look up stream: %w", err)
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{streamSubjects},
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("add stream: %w", err)
	}
	return nil
}

// Publish sends payload wrapped in an Event.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	event, err := NewEvent(subject, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if p.js != nil {
		_, err = p.js.Publish(subject, data, nats.MsgId(event.ID), nats.Context(ctx))
	} else {
		err = p.nc.Publish(subject, data)
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.logger.Warn("NATS drain failed", zap.Error(err))
		p.nc.Close()
	}
}

// NopPublisher drops every event. It is used when NATS_URL is unset.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close()                                      {}
