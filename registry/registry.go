// Package registry resolves which providers a user may be served by.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	ai "github.com/spetersoncode/abapforge"
)

// Candidate is a provider the user has configured, with the credential
// that will be used to call it.
type Candidate struct {
	Provider   ai.Provider
	Credential ai.Credential
}

// Registry resolves ordered candidate providers from a credential store.
type Registry struct {
	store  ai.CredentialStore
	order  []ai.Provider
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithOrder sets the fallback order used when no usable preference is given.
// Unknown or duplicate providers are dropped.
func WithOrder(order ...ai.Provider) Option {
	return func(r *Registry) {
		seen := make(map[ai.Provider]bool, len(order))
		r.order = make([]ai.Provider, 0, len(order))
		for _, p := range order {
			if !p.Valid() || seen[p] {
				continue
			}
			seen[p] = true
			r.order = append(r.order, p)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New creates a Registry with the default order groq, arcee, openai,
// anthropic, google.
func New(store ai.CredentialStore, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		order:  ai.Providers(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Order returns a copy of the fallback order.
func (r *Registry) Order() []ai.Provider {
	out := make([]ai.Provider, len(r.order))
	copy(out, r.order)
	return out
}

// Resolve returns the providers to try for userID, in order.
//
// A usable preference yields exactly that provider. Otherwise every usable
// provider is returned in the configured order. An empty slice means the
// user has nothing configured. Store errors other than ErrNotFound abort
// resolution.
func (r *Registry) Resolve(ctx context.Context, userID string, preference ai.Provider) ([]Candidate, error) {
	if preference != "" {
		cred, ok, err := r.lookup(ctx, userID, preference)
		if err != nil {
			return nil, err
		}
		if ok {
			return []Candidate{{Provider: preference, Credential: cred}}, nil
		}
		r.logger.DebugContext(ctx, "preferred provider not configured, using fallback order",
			"user_id", userID, "provider", preference)
	}

	var candidates []Candidate
	for _, p := range r.order {
		cred, ok, err := r.lookup(ctx, userID, p)
		if err != nil {
			return nil, err
		}
		if ok {
			candidates = append(candidates, Candidate{Provider: p, Credential: cred})
		}
	}
	return candidates, nil
}

// lookup fetches a credential and reports whether it is usable.
func (r *Registry) lookup(ctx context.Context, userID string, p ai.Provider) (ai.Credential, bool, error) {
	if !p.Valid() {
		return ai.Credential{}, false, nil
	}
	cred, err := r.store.ProviderCredential(ctx, userID, p)
	if errors.Is(err, ai.ErrNotFound) {
		return ai.Credential{}, false, nil
	}
	if err != nil {
		return ai.Credential{}, false, fmt.Errorf("load %s credential: %w", p, err)
	}
	if !cred.Usable() {
		return ai.Credential{}, false, nil
	}
	cred.Provider = p
	return cred, true, nil
}
