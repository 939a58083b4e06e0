package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// LoadSendTimes returns up to limit of the most recent send times recorded for
// scope, oldest first.
func (s *Store) LoadSendTimes(ctx context.Context, scope string, limit int) ([]time.Time, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	scope = strings.TrimSpace(scope)
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT sent_at
		FROM sent_times
		WHERE scope = ?
		ORDER BY sent_at DESC, id DESC
		LIMIT ?
	`, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("load send times: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var times []time.Time
	for rows.Next() {
		var sentAt int64
		if err := rows.Scan(&sentAt); err != nil {
			return nil, fmt.Errorf("scan send times: %w", err)
		}
		times = append(times, time.Unix(0, sentAt).UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load send times: %w", err)
	}

	slices.Reverse(times)
	return times, nil
}

// RecordSend appends a send time for scope and prunes everything but the
// newest keep entries.
func (s *Store) RecordSend(ctx context.Context, scope string, at time.Time, keep int) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	scope = strings.TrimSpace(scope)
	if scope == "" {
		return errors.New("scope is required")
	}
	if keep < 1 {
		keep = 1
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record send: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sent_times (scope, sent_at) VALUES (?, ?)
	`, scope, at.UTC().UnixNano()); err != nil {
		return fmt.Errorf("record send: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM sent_times
		WHERE scope = ? AND id NOT IN (
			SELECT id FROM sent_times
			WHERE scope = ?
			ORDER BY sent_at DESC, id DESC
			LIMIT ?
		)
	`, scope, scope, keep); err != nil {
		return fmt.Errorf("prune send times: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO quota_scopes (scope, capacity, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET
			capacity = excluded.capacity,
			updated_at = excluded.updated_at
	`, scope, keep, at.UTC().Unix()); err != nil {
		return fmt.Errorf("record quota scope: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record send: %w", err)
	}
	return nil
}
