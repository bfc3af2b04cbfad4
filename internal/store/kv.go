package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	scopeUser   = "user"
	scopeGlobal = "global"
)

// Get returns the value stored for (userID, key). The second return is
// false when no value exists.
func (s *Store) Get(ctx context.Context, userID, key string) (string, bool, error) {
	return s.get(ctx, scopeUser, userID, key)
}

// GetDefault returns the stored value or def when absent.
func (s *Store) GetDefault(ctx context.Context, userID, key, def string) (string, error) {
	v, ok, err := s.Get(ctx, userID, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// Set stores value under (userID, key), replacing any previous value.
func (s *Store) Set(ctx context.Context, userID, key, value string) error {
	return s.set(ctx, scopeUser, userID, key, value)
}

// Incr adds delta to the numeric value under (userID, key) and returns the
// new value. A missing or unparseable stored value counts as 0.
func (s *Store) Incr(ctx context.Context, userID, key string, delta float64) (float64, error) {
	return s.incr(ctx, scopeUser, userID, key, delta)
}

// Delete removes the value under (userID, key). Deleting a missing key is
// not an error.
func (s *Store) Delete(ctx context.Context, userID, key string) error {
	return s.del(ctx, scopeUser, userID, key)
}

// GetGlobal returns the global value for key.
func (s *Store) GetGlobal(ctx context.Context, key string) (string, bool, error) {
	return s.get(ctx, scopeGlobal, "", key)
}

// GetGlobalDefault returns the global value for key or def when absent.
func (s *Store) GetGlobalDefault(ctx context.Context, key, def string) (string, error) {
	v, ok, err := s.GetGlobal(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// SetGlobal stores a global value.
func (s *Store) SetGlobal(ctx context.Context, key, value string) error {
	return s.set(ctx, scopeGlobal, "", key, value)
}

// IncrGlobal adds delta to the global numeric value for key.
func (s *Store) IncrGlobal(ctx context.Context, key string, delta float64) (float64, error) {
	return s.incr(ctx, scopeGlobal, "", key, delta)
}

// DeleteGlobal removes a global value.
func (s *Store) DeleteGlobal(ctx context.Context, key string) error {
	return s.del(ctx, scopeGlobal, "", key)
}

func (s *Store) get(ctx context.Context, scope, userID, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE scope = ? AND user_id = ? AND key = ?`,
		scope, userID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s/%s/%s: %w", scope, userID, key, err)
	}
	return value, true, nil
}

func (s *Store) set(ctx context.Context, scope, userID, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (scope, user_id, key, value, updated_at)
		VALUES (?, ?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(scope, user_id, key)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, scope, userID, key, value)
	if err != nil {
		return fmt.Errorf("set %s/%s/%s: %w", scope, userID, key, err)
	}
	return nil
}

// incr reads, adds, and writes inside one transaction so concurrent walks
// on the same key cannot lose updates.
func (s *Store) incr(ctx context.Context, scope, userID, key string, delta float64) (float64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("incr %s/%s/%s: %w", scope, userID, key, err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE scope = ? AND user_id = ? AND key = ?`,
		scope, userID, key,
	).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("incr %s/%s/%s: %w", scope, userID, key, err)
	}

	next := ParseNumber(current) + delta
	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv (scope, user_id, key, value, updated_at)
		VALUES (?, ?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(scope, user_id, key)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, scope, userID, key, FormatNumber(next))
	if err != nil {
		return 0, fmt.Errorf("incr %s/%s/%s: %w", scope, userID, key, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("incr %s/%s/%s: %w", scope, userID, key, err)
	}
	return next, nil
}

func (s *Store) del(ctx context.Context, scope, userID, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE scope = ? AND user_id = ? AND key = ?`,
		scope, userID, key)
	if err != nil {
		return fmt.Errorf("delete %s/%s/%s: %w", scope, userID, key, err)
	}
	return nil
}

// ParseNumber parses a stored value as a decimal number, treating missing
// or unparseable text as 0.
func ParseNumber(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// FormatNumber renders a number the way stored values are written:
// without a trailing ".0" for integral values.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
