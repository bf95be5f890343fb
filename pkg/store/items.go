package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const upsertItemSQL = `
INSERT INTO items (id, parent_id, stream_kind, author_id, author_handle, text, created_at, metrics, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
ON CONFLICT(id) DO UPDATE SET
	text = excluded.text,
	metrics = excluded.metrics,
	fetched_at = excluded.fetched_at`

// UpsertItems writes a batch of items inside one transaction. Re-seen ids
// refresh mutable fields (text, metrics, fetched_at) instead of erroring,
// so overlapping fetch windows stay harmless.
func (s *Store) UpsertItems(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertItemSQL)
	if err != nil {
		return fmt.Errorf("store: prepare: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		if _, err := stmt.ExecContext(ctx, it.ID, it.ParentID, it.StreamKind,
			it.AuthorID, it.AuthorHandle, it.Text, it.CreatedAt, it.Metrics); err != nil {
			return fmt.Errorf("store: upsert item %s: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// GetItem returns a single item by id, or sql.ErrNoRows if absent.
func (s *Store) GetItem(ctx context.Context, id string) (Item, error) {
	var it Item
	err := s.db.QueryRowContext(ctx, `
		SELECT id, parent_id, stream_kind, author_id, author_handle, text, created_at, metrics, fetched_at
		FROM items WHERE id = ?`, id).
		Scan(&it.ID, &it.ParentID, &it.StreamKind, &it.AuthorID, &it.AuthorHandle,
			&it.Text, &it.CreatedAt, &it.Metrics, &it.FetchedAt)
	return it, err
}

// ItemsForParent returns every item stored for a parent, newest first.
func (s *Store) ItemsForParent(ctx context.Context, parentID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_id, stream_kind, author_id, author_handle, text, created_at, metrics, fetched_at
		FROM items WHERE parent_id = ?
		ORDER BY CAST(id AS INTEGER) DESC`, parentID)
	if err != nil {
		return nil, fmt.Errorf("store: query items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// UnclassifiedItems returns items for a parent that have no classification
// row yet, oldest first so analysis proceeds in arrival order.
func (s *Store) UnclassifiedItems(ctx context.Context, parentID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.parent_id, i.stream_kind, i.author_id, i.author_handle, i.text, i.created_at, i.metrics, i.fetched_at
		FROM items i
		LEFT JOIN classifications c ON c.item_id = i.id
		WHERE i.parent_id = ? AND c.item_id IS NULL
		ORDER BY CAST(i.id AS INTEGER) ASC`, parentID)
	if err != nil {
		return nil, fmt.Errorf("store: query unclassified: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// CountItems returns the number of items stored for the given parents.
// An empty parent list counts everything.
func (s *Store) CountItems(ctx context.Context, parentIDs []string) (int, error) {
	query := "SELECT COUNT(*) FROM items"
	args := []any{}
	if len(parentIDs) > 0 {
		query += " WHERE parent_id IN (" + placeholders(len(parentIDs)) + ")"
		for _, p := range parentIDs {
			args = append(args, p)
		}
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count items: %w", err)
	}
	return n, nil
}

// CountByParent returns per-parent item totals, largest first.
func (s *Store) CountByParent(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT parent_id, COUNT(*) FROM items GROUP BY parent_id`)
	if err != nil {
		return nil, fmt.Errorf("store: count by parent: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var parent string
		var n int
		if err := rows.Scan(&parent, &n); err != nil {
			return nil, fmt.Errorf("store: scan count: %w", err)
		}
		counts[parent] = n
	}
	return counts, rows.Err()
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ParentID, &it.StreamKind, &it.AuthorID,
			&it.AuthorHandle, &it.Text, &it.CreatedAt, &it.Metrics, &it.FetchedAt); err != nil {
			return nil, fmt.Errorf("store: scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
