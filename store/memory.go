// Package store provides credential and usage storage backends.
//
// Memory is a thread-safe in-process implementation for tests and single
// node deployments. The sqlite subpackage persists the same data on disk.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	ai "github.com/spetersoncode/abapforge"
	"github.com/spetersoncode/abapforge/usage"
)

type credentialKey struct {
	userID   string
	provider ai.Provider
}

// Memory provides thread-safe in-memory credential and usage storage.
type Memory struct {
	mu    sync.RWMutex
	creds map[credentialKey]ai.Credential
	usage []usage.Record
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		creds: make(map[credentialKey]ai.Credential),
	}
}

// PutCredential inserts or replaces the credential for (UserID, Provider).
func (m *Memory) PutCredential(_ context.Context, c ai.Credential) error {
	if err := ValidateCredential(c); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[credentialKey{c.UserID, c.Provider}] = c
	return nil
}

// ProviderCredential returns the credential for userID and p, or
// ai.ErrNotFound.
func (m *Memory) ProviderCredential(_ context.Context, userID string, p ai.Provider) (ai.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.creds[credentialKey{userID, p}]
	if !ok {
		return ai.Credential{}, ai.ErrNotFound
	}
	return c, nil
}

// ListCredentials returns every credential of userID ordered by provider
// priority.
func (m *Memory) ListCredentials(_ context.Context, userID string) ([]ai.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ai.Credential
	for k, c := range m.creds {
		if k.userID == userID {
			out = append(out, c)
		}
	}
	sortByPriority(out)
	return out, nil
}

// DeleteCredential removes a credential. Deleting a missing credential
// returns ai.ErrNotFound.
func (m *Memory) DeleteCredential(_ context.Context, userID string, p ai.Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := credentialKey{userID, p}
	if _, ok := m.creds[k]; !ok {
		return ai.ErrNotFound
	}
	delete(m.creds, k)
	return nil
}

// RecordUsage appends a usage record.
func (m *Memory) RecordUsage(_ context.Context, r usage.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = append(m.usage, r)
	return nil
}

// Usage returns a copy of the usage records of userID, oldest first.
func (m *Memory) Usage(_ context.Context, userID string) ([]usage.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []usage.Record
	for _, r := range m.usage {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

// UsageTotals sums tokens and cost of userID's records.
func (m *Memory) UsageTotals(_ context.Context, userID string) (tokens, costCents int, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.usage {
		if r.UserID == userID {
			tokens += r.TokensUsed
			costCents += r.CostCents
		}
	}
	return tokens, costCents, nil
}

// ValidateCredential checks the fields every backend requires.
func ValidateCredential(c ai.Credential) error {
	if strings.TrimSpace(c.UserID) == "" {
		return fmt.Errorf("credential user id is required")
	}
	if !c.Provider.Valid() {
		return fmt.Errorf("%w: %q", ai.ErrUnknownProvider, c.Provider)
	}
	return nil
}

func sortByPriority(creds []ai.Credential) {
	rank := make(map[ai.Provider]int)
	for i, p := range ai.Providers() {
		rank[p] = i
	}
	sort.Slice(creds, func(i, j int) bool {
		return rank[creds[i].Provider] < rank[creds[j].Provider]
	})
}

var (
	_ ai.CredentialStore = (*Memory)(nil)
	_ usage.Sink         = (*Memory)(nil)
)
