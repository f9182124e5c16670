// Package natssink publishes usage records to a NATS subject so billing
// services can consume them.
package natssink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spetersoncode/abapforge/usage"
)

// DefaultSubject is the subject prefix records are published under. The
// provider name is appended, e.g. "abapforge.usage.groq".
const DefaultSubject = "abapforge.usage"

// Publisher is the subset of *nats.Conn the sink uses.
type Publisher interface {
	PublishMsg(m *nats.Msg) error
	FlushWithContext(ctx context.Context) error
}

// Sink publishes usage records as JSON.
type Sink struct {
	conn    Publisher
	subject string
	flush   bool
}

// Option configures a Sink.
type Option func(*Sink)

// WithSubject sets the subject prefix.
func WithSubject(s string) Option {
	return func(k *Sink) {
		k.subject = s
	}
}

// WithFlush makes every publish wait for the server to acknowledge the
// connection flush.
func WithFlush(enabled bool) Option {
	return func(k *Sink) {
		k.flush = enabled
	}
}

// New creates a Sink on an existing connection.
func New(conn Publisher, opts ...Option) *Sink {
	s := &Sink{conn: conn, subject: DefaultSubject}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect dials url and returns the connection. Callers own the connection
// and must Close it.
func Connect(url string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Name("abapforge-usage"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return nc, nil
}

// Subject returns the subject a record is published on.
func (s *Sink) Subject(r usage.Record) string {
	if r.Provider == "" {
		return s.subject + ".unknown"
	}
	return s.subject + "." + string(r.Provider)
}

// RecordUsage publishes r.
func (s *Sink) RecordUsage(ctx context.Context, r usage.Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode usage record: %w", err)
	}

	msg := nats.NewMsg(s.Subject(r))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, r.ID)

	if err := s.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish usage record: %w", err)
	}
	if s.flush {
		if err := s.conn.FlushWithContext(ctx); err != nil {
			return fmt.Errorf("flush usage record: %w", err)
		}
	}
	return nil
}

var _ usage.Sink = (*Sink)(nil)
