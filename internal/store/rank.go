package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Entry is one leaderboard row.
type Entry struct {
	UserID string
	Value  float64
}

// Rank describes one user's position for a key.
type Rank struct {
	Rank  int     // 1-based; equal values share a rank
	Value float64 // the user's own value
	Total int     // number of users holding the key
}

// TopN returns up to limit user entries for key, ordered by the numeric
// cast of the stored value. asc=false means highest first (the usual
// leaderboard). Ties break by user_id for a deterministic order.
func (s *Store) TopN(ctx context.Context, key string, limit int, asc bool) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	dir := "DESC"
	if asc {
		dir = "ASC"
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT user_id, CAST(value AS REAL) AS num
		FROM kv
		WHERE scope = 'user' AND key = ?
		ORDER BY num %s, user_id ASC
		LIMIT ?
	`, dir), key, limit)
	if err != nil {
		return nil, fmt.Errorf("top %q: %w", key, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.UserID, &e.Value); err != nil {
			return nil, fmt.Errorf("top %q: %w", key, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top %q: %w", key, err)
	}
	return entries, nil
}

// RankOf returns the user's rank for key. Rank is one plus the number of
// users with a strictly better value, so equal values share a rank.
// The second return is false when the user holds no value for the key.
func (s *Store) RankOf(ctx context.Context, userID, key string, asc bool) (Rank, bool, error) {
	var own float64
	err := s.db.QueryRowContext(ctx, `
		SELECT CAST(value AS REAL)
		FROM kv
		WHERE scope = 'user' AND user_id = ? AND key = ?
	`, userID, key).Scan(&own)
	if errors.Is(err, sql.ErrNoRows) {
		return Rank{}, false, nil
	}
	if err != nil {
		return Rank{}, false, fmt.Errorf("rank of %s for %q: %w", userID, key, err)
	}

	cmp := ">"
	if asc {
		cmp = "<"
	}
	var better, total int
	err = s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT
			COUNT(CASE WHEN CAST(value AS REAL) %s ? THEN 1 END),
			COUNT(*)
		FROM kv
		WHERE scope = 'user' AND key = ?
	`, cmp), own, key).Scan(&better, &total)
	if err != nil {
		return Rank{}, false, fmt.Errorf("rank of %s for %q: %w", userID, key, err)
	}

	return Rank{Rank: better + 1, Value: own, Total: total}, true, nil
}

// CountWithKey returns the number of users holding a value for key.
func (s *Store) CountWithKey(ctx context.Context, key string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM kv WHERE scope = 'user' AND key = ?`, key,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", key, err)
	}
	return n, nil
}
