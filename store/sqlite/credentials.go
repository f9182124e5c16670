package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	ai "github.com/spetersoncode/abapforge"
	"github.com/spetersoncode/abapforge/store"
)

// PutCredential inserts or updates the credential for (UserID, Provider).
func (s *Store) PutCredential(ctx context.Context, c ai.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := store.ValidateCredential(c); err != nil {
		return err
	}

	now := toMillis(s.now())
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO provider_credentials (
	user_id, provider, api_key, enabled, default_model, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id, provider) DO UPDATE SET
	api_key = excluded.api_key,
	enabled = excluded.enabled,
	default_model = excluded.default_model,
	updated_at = excluded.updated_at
`,
		c.UserID,
		string(c.Provider),
		c.APIKey,
		c.Enabled,
		c.DefaultModel,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("put credential: %w", err)
	}
	return nil
}

// ProviderCredential returns the credential for userID and p, or
// ai.ErrNotFound.
func (s *Store) ProviderCredential(ctx context.Context, userID string, p ai.Provider) (ai.Credential, error) {
	if err := ctx.Err(); err != nil {
		return ai.Credential{}, err
	}
	if s == nil || s.sqlDB == nil {
		return ai.Credential{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT user_id, provider, api_key, enabled, default_model
FROM provider_credentials
WHERE user_id = ? AND provider = ?
`, strings.TrimSpace(userID), string(p))

	c, err := scanCredential(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ai.Credential{}, ai.ErrNotFound
		}
		return ai.Credential{}, fmt.Errorf("get credential: %w", err)
	}
	return c, nil
}

// ListCredentials returns every credential of userID ordered by provider
// priority.
func (s *Store) ListCredentials(ctx context.Context, userID string) ([]ai.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT user_id, provider, api_key, enabled, default_model
FROM provider_credentials
WHERE user_id = ?
`, strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	rank := make(map[ai.Provider]int)
	for i, p := range ai.Providers() {
		rank[p] = i
	}

	var out []ai.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return rank[out[i].Provider] < rank[out[j].Provider]
	})
	return out, nil
}

// DeleteCredential removes a credential, returning ai.ErrNotFound when
// nothing was deleted.
func (s *Store) DeleteCredential(ctx context.Context, userID string, p ai.Provider) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	res, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM provider_credentials WHERE user_id = ? AND provider = ?",
		strings.TrimSpace(userID), string(p))
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	if n == 0 {
		return ai.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (ai.Credential, error) {
	var (
		c        ai.Credential
		provider string
	)
	if err := row.Scan(&c.UserID, &provider, &c.APIKey, &c.Enabled, &c.DefaultModel); err != nil {
		return ai.Credential{}, err
	}
	c.Provider = ai.Provider(provider)
	return c, nil
}

var _ ai.CredentialStore = (*Store)(nil)
var _ store.Store = (*Store)(nil)
