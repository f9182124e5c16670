package store

import (
	"context"

	ai "github.com/spetersoncode/abapforge"
	"github.com/spetersoncode/abapforge/usage"
)

// Store is a full credential and usage backend.
type Store interface {
	ai.CredentialStore
	usage.Sink
	PutCredential(ctx context.Context, c ai.Credential) error
	ListCredentials(ctx context.Context, userID string) ([]ai.Credential, error)
	DeleteCredential(ctx context.Context, userID string, p ai.Provider) error
	Usage(ctx context.Context, userID string) ([]usage.Record, error)
	UsageTotals(ctx context.Context, userID string) (tokens, costCents int, err error)
}

var _ Store = (*Memory)(nil)
