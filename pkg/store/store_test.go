package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertItemsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := Item{
		ID: "100", ParentID: "1", StreamKind: "reply",
		AuthorID: "a1", AuthorHandle: "alice",
		Text: "original text", Metrics: `{"like_count":1}`,
	}
	require.NoError(t, s.UpsertItems(ctx, []Item{first}))

	// Re-seeing the same id refreshes text and metrics without erroring.
	updated := first
	updated.Text = "edited text"
	updated.Metrics = `{"like_count":5}`
	updated.AuthorHandle = "mallory"
	require.NoError(t, s.UpsertItems(ctx, []Item{updated}))

	got, err := s.GetItem(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, "edited text", got.Text)
	assert.Equal(t, `{"like_count":5}`, got.Metrics)
	assert.Equal(t, "alice", got.AuthorHandle, "immutable fields keep their first value")

	n, err := s.CountItems(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsertItemsEmptyBatch(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpsertItems(context.Background(), nil))
}

func TestWatermarkRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.GetWatermark(ctx, "1", "reply", Forward)
	require.NoError(t, err)
	assert.False(t, ok, "missing watermark reports absence, not an error")

	require.NoError(t, s.SetWatermark(ctx, "1", "reply", Forward, "500"))
	require.NoError(t, s.SetWatermark(ctx, "1", "reply", Forward, "900"))

	id, ok, err := s.GetWatermark(ctx, "1", "reply", Forward)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "900", id)

	// Directions and stream kinds are independent keys.
	_, ok, err = s.GetWatermark(ctx, "1", "reply", Backward)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.GetWatermark(ctx, "1", "quote", Forward)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompareIDsNumeric(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"999999999", "1000000001", -1},
		{"1000000001", "999999999", 1},
		{"42", "42", 0},
		{"042", "42", 0},
		{"9", "10", -1},
		{"18446744073709551617", "18446744073709551616", 1},
	}
	for _, tt := range tests {
		if got := CompareIDs(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareIDs(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}

	assert.Equal(t, "1000000001", MaxID("999999999", "1000000001"))
	assert.Equal(t, "999999999", MinID("999999999", "1000000001"))
	assert.Equal(t, "7", MaxID("", "7"))
	assert.Equal(t, "7", MinID("7", ""))
}

func TestClassificationFlow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	items := []Item{
		{ID: "10", ParentID: "1", StreamKind: "reply", Text: "please add dark mode"},
		{ID: "11", ParentID: "1", StreamKind: "reply", Text: "it crashes on launch"},
		{ID: "12", ParentID: "2", StreamKind: "quote", Text: "nice"},
	}
	require.NoError(t, s.UpsertItems(ctx, items))

	pending, err := s.UnclassifiedItems(ctx, "1")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "10", pending[0].ID, "analysis proceeds oldest first")

	require.NoError(t, s.InsertClassification(ctx, Classification{
		ItemID: "10", Category: "feature_request", Summary: "dark mode", Priority: 2,
	}))
	// Items are classified once; a repeat insert changes nothing.
	require.NoError(t, s.InsertClassification(ctx, Classification{
		ItemID: "10", Category: "spam", Priority: 0,
	}))

	pending, err = s.UnclassifiedItems(ctx, "1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "11", pending[0].ID)

	all, err := s.ClassifiedItems(ctx, []string{"1"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "11", all[0].ID, "newest first")
	assert.Equal(t, "other", all[0].Category, "unclassified defaults")
	assert.Equal(t, 0, all[0].Priority)
	assert.Equal(t, "feature_request", all[1].Category)

	counts, err := s.CategoryCounts(ctx, []string{"1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"feature_request": 1, "other": 1}, counts)
}

func TestHighPriorityAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertItems(ctx, []Item{
		{ID: "20", ParentID: "1", StreamKind: "reply", Text: "broken"},
		{ID: "21", ParentID: "1", StreamKind: "reply", Text: "thanks"},
		{ID: "22", ParentID: "1", StreamKind: "reply", Text: "add export"},
	}))
	require.NoError(t, s.InsertClassification(ctx, Classification{ItemID: "20", Category: "bug_report", Priority: 2}))
	require.NoError(t, s.InsertClassification(ctx, Classification{ItemID: "21", Category: "praise", Priority: 0}))
	require.NoError(t, s.InsertClassification(ctx, Classification{ItemID: "22", Category: "feature_request", Priority: 2}))

	high, err := s.HighPriorityItems(ctx, []string{"1"}, 10)
	require.NoError(t, err)
	require.Len(t, high, 2)
	assert.Equal(t, "22", high[0].ID, "ties break newest first")

	recent, err := s.RecentItems(ctx, []string{"1"}, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "22", recent[0].ID)
	assert.Equal(t, "21", recent[1].ID)

	byParent, err := s.CountByParent(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"1": 3}, byParent)
}
