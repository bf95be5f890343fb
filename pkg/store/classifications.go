package store

import (
	"context"
	"fmt"
)

// InsertClassification records an analysis verdict for an item. Items are
// classified once; a second insert for the same id is a silent no-op.
func (s *Store) InsertClassification(ctx context.Context, c Classification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO classifications (item_id, category, summary, priority, classified_at)
		VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT(item_id) DO NOTHING`,
		c.ItemID, c.Category, c.Summary, c.Priority)
	if err != nil {
		return fmt.Errorf("store: insert classification: %w", err)
	}
	return nil
}

const classifiedSelect = `
	SELECT i.id, i.parent_id, i.stream_kind, i.author_id, i.author_handle,
		i.text, i.created_at, i.metrics, i.fetched_at,
		COALESCE(c.category, 'other'), COALESCE(c.summary, ''), COALESCE(c.priority, 0)
	FROM items i
	LEFT JOIN classifications c ON c.item_id = i.id`

// ClassifiedItems returns all items for the given parents joined with
// their classifications, newest first. Unclassified items appear with
// category "other" and priority 0. An empty parent list returns everything.
func (s *Store) ClassifiedItems(ctx context.Context, parentIDs []string) ([]ClassifiedItem, error) {
	query := classifiedSelect
	args := []any{}
	if len(parentIDs) > 0 {
		query += " WHERE i.parent_id IN (" + placeholders(len(parentIDs)) + ")"
		for _, p := range parentIDs {
			args = append(args, p)
		}
	}
	query += " ORDER BY CAST(i.id AS INTEGER) DESC"
	return s.queryClassified(ctx, query, args...)
}

// HighPriorityItems returns classified items with priority >= 2 for the
// given parents, highest priority first then newest first.
func (s *Store) HighPriorityItems(ctx context.Context, parentIDs []string, limit int) ([]ClassifiedItem, error) {
	query := classifiedSelect + " WHERE c.priority >= 2"
	args := []any{}
	if len(parentIDs) > 0 {
		query += " AND i.parent_id IN (" + placeholders(len(parentIDs)) + ")"
		for _, p := range parentIDs {
			args = append(args, p)
		}
	}
	query += " ORDER BY c.priority DESC, CAST(i.id AS INTEGER) DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryClassified(ctx, query, args...)
}

// RecentItems returns the newest classified items for the given parents.
func (s *Store) RecentItems(ctx context.Context, parentIDs []string, limit int) ([]ClassifiedItem, error) {
	query := classifiedSelect
	args := []any{}
	if len(parentIDs) > 0 {
		query += " WHERE i.parent_id IN (" + placeholders(len(parentIDs)) + ")"
		for _, p := range parentIDs {
			args = append(args, p)
		}
	}
	query += " ORDER BY CAST(i.id AS INTEGER) DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryClassified(ctx, query, args...)
}

// CategoryCounts returns item totals per category for the given parents.
// Unclassified items count under "other".
func (s *Store) CategoryCounts(ctx context.Context, parentIDs []string) (map[string]int, error) {
	query := `
		SELECT COALESCE(c.category, 'other'), COUNT(*)
		FROM items i
		LEFT JOIN classifications c ON c.item_id = i.id`
	args := []any{}
	if len(parentIDs) > 0 {
		query += " WHERE i.parent_id IN (" + placeholders(len(parentIDs)) + ")"
		for _, p := range parentIDs {
			args = append(args, p)
		}
	}
	query += " GROUP BY COALESCE(c.category, 'other')"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("store: scan category count: %w", err)
		}
		counts[cat] = n
	}
	return counts, rows.Err()
}

func (s *Store) queryClassified(ctx context.Context, query string, args ...any) ([]ClassifiedItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query classified: %w", err)
	}
	defer rows.Close()

	var items []ClassifiedItem
	for rows.Next() {
		var ci ClassifiedItem
		if err := rows.Scan(&ci.ID, &ci.ParentID, &ci.StreamKind, &ci.AuthorID,
			&ci.AuthorHandle, &ci.Text, &ci.CreatedAt, &ci.Metrics, &ci.FetchedAt,
			&ci.Category, &ci.Summary, &ci.Priority); err != nil {
			return nil, fmt.Errorf("store: scan classified: %w", err)
		}
		items = append(items, ci)
	}
	return items, rows.Err()
}
