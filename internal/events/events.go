// Package events carries committed escrow state changes to subscribers.
// Publishing is best-effort: a failed publish never undoes the operation
// that produced the event.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	TopicSessionCreated   = "session.created"
	TopicAttendanceMarked = "session.attendance_marked"
	TopicSessionCompleted = "session.completed"
	TopicClientAtRisk     = "client.at_risk"
)

// Envelope is the wire shape shared by NATS subjects and websocket frames.
type Envelope struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	SessionID  uint64    `json:"session_id,omitempty"`
	Client     string    `json:"client"`
	Coach      string    `json:"coach,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	Attended   *bool     `json:"attended,omitempty"`
	AtRisk     *bool     `json:"at_risk,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEnvelope(topic string) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
	}
}

// Recipients are the identities that should see the event on a live stream.
func (e Envelope) Recipients() []string {
	if e.Coach == "" || e.Coach == e.Client {
		return []string{e.Client}
	}
	return []string{e.Client, e.Coach}
}

type Publisher interface {
	Publish(ctx context.Context, event Envelope) error
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Envelope) error { return nil }
func (NoopPublisher) Close() error                            { return nil }

// Fanout delivers every event to each publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event Envelope) error {
	var errs []error
	for _, publisher := range f {
		if err := publisher.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, publisher := range f {
		if err := publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
