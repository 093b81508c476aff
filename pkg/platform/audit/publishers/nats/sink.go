// Package nats forwards audit events to a NATS subject.
package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	audit "charitydrive/pkg/platform/audit"
)

// Conn is the subset of *nats.Conn the sink uses.
type Conn interface {
	PublishMsg(msg *nats.Msg) error
}

// Sink publishes events to "<subject>.<category>.<action>".
type Sink struct {
	conn    Conn
	subject string
}

func NewSink(conn Conn, subject string) *Sink {
	return &Sink{conn: conn, subject: subject}
}

// Connect dials url with a client name and unlimited reconnects.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("charitydrive"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}

func (s *Sink) Publish(ctx context.Context, event audit.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := audit.Encode(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := nats.NewMsg(fmt.Sprintf("%s.%s.%s", s.subject, event.Category, event.Action))
	msg.Data = payload
	msg.Header.Set("Nats-Msg-Id", event.ID.String())
	if err := s.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
