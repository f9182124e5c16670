// Package usage delivers per-generation usage records to billing sinks
// without blocking the request path.
package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
	ai "github.com/spetersoncode/abapforge"
)

// Record is the token and cost accounting for one generation.
type Record struct {
	ID           string      `json:"id"`
	UserID       string      `json:"userId"`
	Kind         ai.Kind     `json:"kind"`
	Provider     ai.Provider `json:"provider"`
	Model        string      `json:"model"`
	InputTokens  int         `json:"inputTokens"`
	OutputTokens int         `json:"outputTokens"`
	TokensUsed   int         `json:"tokensUsed"`
	CostCents    int         `json:"costCents"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// NewRecord builds a record for a successful response. ID and CreatedAt are
// filled in.
func NewRecord(userID string, kind ai.Kind, resp *ai.Response) Record {
	r := Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	if resp != nil {
		r.Provider = resp.Provider
		r.Model = resp.Model
		r.InputTokens = resp.Usage.InputTokens
		r.OutputTokens = resp.Usage.OutputTokens
		r.TokensUsed = resp.TokensUsed()
		r.CostCents = resp.CostCents
	}
	return r
}

// Sink persists or forwards usage records.
type Sink interface {
	RecordUsage(ctx context.Context, r Record) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, r Record) error

// RecordUsage calls f(ctx, r).
func (f SinkFunc) RecordUsage(ctx context.Context, r Record) error {
	return f(ctx, r)
}

// Reporter accepts usage records without blocking the caller.
type Reporter interface {
	Report(ctx context.Context, r Record)
}

// Discard is a Reporter that drops every record.
type Discard struct{}

// Report does nothing.
func (Discard) Report(context.Context, Record) {}

// MultiSink fans a record out to several sinks in order. The first error
// is returned after all sinks have been tried.
type MultiSink []Sink

// RecordUsage delivers r to every sink.
func (m MultiSink) RecordUsage(ctx context.Context, r Record) error {
	var first error
	for _, s := range m {
		if err := s.RecordUsage(ctx, r); err != nil && first == nil {
			first = err
		}
	}
	return first
}
