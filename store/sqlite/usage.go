package sqlite

import (
	"context"
	"fmt"
	"strings"

	ai "github.com/spetersoncode/abapforge"
	"github.com/spetersoncode/abapforge/usage"
)

// RecordUsage stores a usage record. Re-delivering the same record ID is a
// no-op, so retried deliveries do not double count.
func (s *Store) RecordUsage(ctx context.Context, r usage.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("usage record id is required")
	}

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO usage_records (
	id, user_id, kind, provider, model, input_tokens, output_tokens, tokens_used, cost_cents, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING
`,
		r.ID,
		r.UserID,
		string(r.Kind),
		string(r.Provider),
		r.Model,
		r.InputTokens,
		r.OutputTokens,
		r.TokensUsed,
		r.CostCents,
		toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// Usage returns the usage records of userID, oldest first.
func (s *Store) Usage(ctx context.Context, userID string) ([]usage.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, kind, provider, model, input_tokens, output_tokens, tokens_used, cost_cents, created_at
FROM usage_records
WHERE user_id = ?
ORDER BY created_at, id
`, strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}
	defer rows.Close()

	var out []usage.Record
	for rows.Next() {
		var (
			r              usage.Record
			kind, provider string
			createdAt      int64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &kind, &provider, &r.Model,
			&r.InputTokens, &r.OutputTokens, &r.TokensUsed, &r.CostCents, &createdAt); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		r.Kind = ai.Kind(kind)
		r.Provider = ai.Provider(provider)
		r.CreatedAt = fromMillis(createdAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage: %w", err)
	}
	return out, nil
}

// UsageTotals sums tokens and cost of userID's records.
func (s *Store) UsageTotals(ctx context.Context, userID string) (tokens, costCents int, err error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, 0, fmt.Errorf("storage is not configured")
	}
	err = s.sqlDB.QueryRowContext(ctx, `
SELECT COALESCE(SUM(tokens_used), 0), COALESCE(SUM(cost_cents), 0)
FROM usage_records
WHERE user_id = ?
`, strings.TrimSpace(userID)).Scan(&tokens, &costCents)
	if err != nil {
		return 0, 0, fmt.Errorf("usage totals: %w", err)
	}
	return tokens, costCents, nil
}

var _ usage.Sink = (*Store)(nil)
