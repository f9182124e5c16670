package abapforge

import (
	"context"
	"strings"
)

// Credential is a user's configuration for one provider. The core reads
// credentials but never persists or mutates them.
type Credential struct {
	UserID       string   `json:"userId"`
	Provider     Provider `json:"provider"`
	APIKey       string   `json:"-"`
	Enabled      bool     `json:"enabled"`
	DefaultModel string   `json:"defaultModel,omitempty"`
}

// Usable reports whether the credential is enabled and carries a key.
// Anything else counts as "not configured".
func (c Credential) Usable() bool {
	return c.Enabled && strings.TrimSpace(c.APIKey) != ""
}

// CredentialStore looks up provider credentials per user.
// Implementations return ErrNotFound when no credential exists.
type CredentialStore interface {
	ProviderCredential(ctx context.Context, userID string, p Provider) (Credential, error)
}
