package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/routelens/routelens/internal/core"
)

// QuotaQuery selects persisted quota scopes.
type QuotaQuery struct {
	All    bool
	Scope  string
	Prefix string
}

func (q QuotaQuery) Validate() error {
	if q.All {
		return nil
	}
	if strings.TrimSpace(q.Scope) != "" {
		return nil
	}
	if strings.TrimSpace(q.Prefix) != "" {
		return nil
	}
	return errors.New("must specify --all, --scope, or --prefix")
}

func (q QuotaQuery) whereClause() (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}
	if q.All {
		return "", nil, nil
	}
	if scope := strings.TrimSpace(q.Scope); scope != "" {
		return "WHERE scope = ?", []any{scope}, nil
	}
	prefix := strings.TrimSpace(q.Prefix)
	if prefix == "" {
		return "", nil, errors.New("prefix is required")
	}
	return "WHERE scope LIKE ?", []any{prefix + "%"}, nil
}

// ListQuotas returns the persisted window of every matching scope.
func (s *Store) ListQuotas(ctx context.Context, q QuotaQuery) ([]core.QuotaState, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT scope, capacity
		FROM quota_scopes
		%s
		ORDER BY scope
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list quotas: %w", err)
	}

	states := []core.QuotaState{}
	for rows.Next() {
		var state core.QuotaState
		if err := rows.Scan(&state.Scope, &state.Capacity); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan quotas: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("list quotas: %w", err)
	}
	// Close before issuing more queries; local stores hold a single connection.
	_ = rows.Close()

	for i := range states {
		sent, err := s.LoadSendTimes(ctx, states[i].Scope, max(states[i].Capacity, 1))
		if err != nil {
			return nil, err
		}
		states[i].Sent = sent
	}

	return states, nil
}

// CountQuotas counts matching scopes.
func (s *Store) CountQuotas(ctx context.Context, q QuotaQuery) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	row := s.DB.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*)
		FROM quota_scopes
		%s
	`, where), args...)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count quotas: %w", err)
	}
	return count, nil
}

// ResetQuotas forgets the send history of matching scopes and reports how many
// scopes were cleared.
func (s *Store) ResetQuotas(ctx context.Context, q QuotaQuery) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("reset quotas: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM sent_times
		%s
	`, where), args...); err != nil {
		return 0, fmt.Errorf("reset quotas: %w", err)
	}

	result, err := tx.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM quota_scopes
		%s
	`, where), args...)
	if err != nil {
		return 0, fmt.Errorf("reset quotas: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset quotas: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("reset quotas: %w", err)
	}
	return affected, nil
}

// PruneBefore deletes send times older than cutoff across all scopes.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM sent_times WHERE sent_at < ?`, cutoff.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune send times: %w", err)
	}
	return result.RowsAffected()
}
