package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// GetWatermark returns the stored id for (parentID, streamKind, direction).
// The second return is false when no watermark has been recorded yet.
func (s *Store) GetWatermark(ctx context.Context, parentID, streamKind string, dir Direction) (string, bool, error) {
	var lastID string
	err := s.db.QueryRowContext(ctx, `
		SELECT last_id FROM watermarks
		WHERE parent_id = ? AND stream_kind = ? AND direction = ?`,
		parentID, streamKind, string(dir)).Scan(&lastID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: get watermark: %w", err)
	}
	return lastID, true, nil
}

// SetWatermark records lastID for (parentID, streamKind, direction),
// replacing any previous value. Callers are responsible for only
// advancing watermarks; the store does not compare.
func (s *Store) SetWatermark(ctx context.Context, parentID, streamKind string, dir Direction, lastID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watermarks (parent_id, stream_kind, direction, last_id, updated_at)
		VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT(parent_id, stream_kind, direction) DO UPDATE SET
			last_id = excluded.last_id,
			updated_at = excluded.updated_at`,
		parentID, streamKind, string(dir), lastID)
	if err != nil {
		return fmt.Errorf("store: set watermark: %w", err)
	}
	return nil
}

// CompareIDs orders two decimal post ids numerically, returning -1, 0 or 1.
// Ids are compared as unbounded non-negative integers, never as strings,
// so "1000000001" sorts above "999999999".
func CompareIDs(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// MaxID returns the numerically larger of two ids; an empty id loses.
func MaxID(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if CompareIDs(a, b) >= 0 {
		return a
	}
	return b
}

// MinID returns the numerically smaller of two ids; an empty id loses.
func MinID(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if CompareIDs(a, b) <= 0 {
		return a
	}
	return b
}
