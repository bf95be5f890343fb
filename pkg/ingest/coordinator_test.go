package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xfeedback/pkg/config"
	errs "xfeedback/pkg/errors"
	"xfeedback/pkg/logger"
	"xfeedback/pkg/store"
	"xfeedback/pkg/xapi"
)

// fakeStream scripts a sequence of pages and records every request.
type fakeStream struct {
	kind  xapi.StreamKind
	pages []fakePage
	calls []fakeCall
}

type fakePage struct {
	items []xapi.Post
	next  string
	err   error
}

type fakeCall struct {
	bounds xapi.Bounds
	token  string
}

func (f *fakeStream) Kind() xapi.StreamKind { return f.kind }

func (f *fakeStream) FetchPage(ctx context.Context, parentID string, bounds xapi.Bounds, token string) (*xapi.Page, error) {
	f.calls = append(f.calls, fakeCall{bounds: bounds, token: token})
	if len(f.pages) == 0 {
		return &xapi.Page{}, nil
	}
	p := f.pages[0]
	f.pages = f.pages[1:]
	if p.err != nil {
		return nil, p.err
	}
	return &xapi.Page{Items: p.items, NextToken: p.next}, nil
}

func posts(ids ...string) []xapi.Post {
	out := make([]xapi.Post, len(ids))
	for i, id := range ids {
		out[i] = xapi.Post{ID: id, Text: "t" + id, AuthorID: "u1", AuthorHandle: "alice"}
	}
	return out
}

func testCoordinator(t *testing.T, f *fakeStream) (*Coordinator, *store.Store) {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	cfg := config.DefaultConfig()
	cfg.Fetch.MaxPages = 10
	cfg.Fetch.InterPageDelay = 0
	return New(cfg, s, f, nil, logger.NewTestLogger()), s
}

func TestSelectMode(t *testing.T) {
	tests := []struct {
		name              string
		forward, backward string
		backfill          bool
		wantMode          Mode
		wantBounds        xapi.Bounds
	}{
		{"no watermarks", "", "", false, ModeInitial, xapi.Bounds{}},
		{"forward only", "500", "", false, ModeIncremental, xapi.Bounds{SinceID: "500"}},
		{"backfill with backward", "500", "100", true, ModeBackfill, xapi.Bounds{UntilID: "100"}},
		{"backfill without backward falls back", "500", "", true, ModeIncremental, xapi.Bounds{SinceID: "500"}},
		{"backfill on empty store", "", "", true, ModeInitial, xapi.Bounds{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, bounds := selectMode(tt.forward, tt.backward, tt.backfill)
			assert.Equal(t, tt.wantMode, mode)
			assert.Equal(t, tt.wantBounds, bounds)
		})
	}
}

func TestRunInitialCommitsBothWatermarks(t *testing.T) {
	f := &fakeStream{kind: xapi.StreamReplies, pages: []fakePage{
		{items: posts("300", "200"), next: "tok1"},
		{items: posts("150", "100")},
	}}
	c, s := testCoordinator(t, f)

	res, err := c.Run(context.Background(), "1", false, nil)
	require.NoError(t, err)
	assert.Equal(t, ModeInitial, res.Mode)
	assert.Equal(t, 4, res.Saved)
	assert.Equal(t, 2, res.Pages)
	assert.Nil(t, res.Err)

	// Second request carries the continuation token, not bounds.
	require.Len(t, f.calls, 2)
	assert.Equal(t, "tok1", f.calls[1].token)
	assert.Equal(t, xapi.Bounds{}, f.calls[1].bounds)

	ctx := context.Background()
	fwd, ok, err := s.GetWatermark(ctx, "1", "reply", store.Forward)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "300", fwd)
	bwd, ok, err := s.GetWatermark(ctx, "1", "reply", store.Backward)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "100", bwd)
}

func TestRunIncrementalUsesForwardWatermark(t *testing.T) {
	f := &fakeStream{kind: xapi.StreamReplies, pages: []fakePage{
		{items: posts("900")},
	}}
	c, s := testCoordinator(t, f)
	ctx := context.Background()
	require.NoError(t, s.SetWatermark(ctx, "1", "reply", store.Forward, "500"))

	res, err := c.Run(ctx, "1", false, nil)
	require.NoError(t, err)
	assert.Equal(t, ModeIncremental, res.Mode)
	require.Len(t, f.calls, 1)
	assert.Equal(t, "500", f.calls[0].bounds.SinceID)
	assert.Empty(t, f.calls[0].bounds.UntilID)

	fwd, _, err := s.GetWatermark(ctx, "1", "reply", store.Forward)
	require.NoError(t, err)
	assert.Equal(t, "900", fwd)
}

func TestRunNumericWatermarkOrdering(t *testing.T) {
	f := &fakeStream{kind: xapi.StreamReplies, pages: []fakePage{
		{items: posts("1000000001", "999999999")},
	}}
	c, s := testCoordinator(t, f)

	_, err := c.Run(context.Background(), "1", false, nil)
	require.NoError(t, err)

	fwd, _, err := s.GetWatermark(context.Background(), "1", "reply", store.Forward)
	require.NoError(t, err)
	assert.Equal(t, "1000000001", fwd, "ids compare numerically, not lexicographically")
}

func TestRunWatermarkMonotonic(t *testing.T) {
	ctx := context.Background()
	f := &fakeStream{kind: xapi.StreamReplies, pages: []fakePage{
		{items: posts("800")},
	}}
	c, s := testCoordinator(t, f)
	require.NoError(t, s.SetWatermark(ctx, "1", "reply", store.Forward, "900"))
	require.NoError(t, s.SetWatermark(ctx, "1", "reply", store.Backward, "100"))

	res, err := c.Run(ctx, "1", false, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Saved)

	// Observed ids inside the stored window move neither watermark.
	fwd, _, err := s.GetWatermark(ctx, "1", "reply", store.Forward)
	require.NoError(t, err)
	assert.Equal(t, "900", fwd)
	bwd, _, err := s.GetWatermark(ctx, "1", "reply", store.Backward)
	require.NoError(t, err)
	assert.Equal(t, "100", bwd)
}

func TestRunEmptyPageIsWatermarkNoop(t *testing.T) {
	f := &fakeStream{kind: xapi.StreamReplies}
	c, s := testCoordinator(t, f)
	ctx := context.Background()
	require.NoError(t, s.SetWatermark(ctx, "1", "reply", store.Forward, "500"))

	res, err := c.Run(ctx, "1", false, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Saved)

	fwd, _, err := s.GetWatermark(ctx, "1", "reply", store.Forward)
	require.NoError(t, err)
	assert.Equal(t, "500", fwd)
	_, ok, err := s.GetWatermark(ctx, "1", "reply", store.Backward)
	require.NoError(t, err)
	assert.False(t, ok, "zero-item run writes no watermarks")
}

func TestRunFailureKeepsPagesSkipsCommit(t *testing.T) {
	f := &fakeStream{kind: xapi.StreamReplies, pages: []fakePage{
		{items: posts("400"), next: "tok1"},
		{items: posts("300"), next: "tok2"},
		{err: errs.New(errs.ErrorTypeNetwork, "connection reset")},
		{items: posts("200")},
	}}
	c, s := testCoordinator(t, f)
	ctx := context.Background()
	require.NoError(t, s.SetWatermark(ctx, "1", "reply", store.Forward, "100"))

	res, err := c.Run(ctx, "1", false, nil)
	require.NoError(t, err, "a fetch error does not fail the run")
	assert.Error(t, res.Err)
	assert.Equal(t, 2, res.Saved)

	// Pages written before the failure stand.
	n, err := s.CountItems(ctx, []string{"1"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// The watermark is untouched, so the next run re-covers the gap.
	fwd, _, err := s.GetWatermark(ctx, "1", "reply", store.Forward)
	require.NoError(t, err)
	assert.Equal(t, "100", fwd)
}

func TestRunRateLimitSkipFlagged(t *testing.T) {
	f := &fakeStream{kind: xapi.StreamQuotes, pages: []fakePage{
		{err: errs.New(errs.ErrorTypeRateLimitSkip, "reset too far out")},
	}}
	c, _ := testCoordinator(t, f)

	res, err := c.Run(context.Background(), "1", false, nil)
	require.NoError(t, err)
	assert.True(t, res.RateLimited)
	assert.Error(t, res.Err)
}

func TestRunBackfillUsesUpperBound(t *testing.T) {
	f := &fakeStream{kind: xapi.StreamReplies, pages: []fakePage{
		{items: posts("90", "80")},
	}}
	c, s := testCoordinator(t, f)
	ctx := context.Background()
	require.NoError(t, s.SetWatermark(ctx, "1", "reply", store.Forward, "500"))
	require.NoError(t, s.SetWatermark(ctx, "1", "reply", store.Backward, "100"))

	res, err := c.Run(ctx, "1", true, nil)
	require.NoError(t, err)
	assert.Equal(t, ModeBackfill, res.Mode)
	require.Len(t, f.calls, 1)
	assert.Equal(t, "100", f.calls[0].bounds.UntilID)
	assert.Empty(t, f.calls[0].bounds.SinceID)

	// Backfill extends the backward watermark and leaves forward alone.
	bwd, _, err := s.GetWatermark(ctx, "1", "reply", store.Backward)
	require.NoError(t, err)
	assert.Equal(t, "80", bwd)
	fwd, _, err := s.GetWatermark(ctx, "1", "reply", store.Forward)
	require.NoError(t, err)
	assert.Equal(t, "500", fwd)
}

func TestRunPageCeilingStopsLoop(t *testing.T) {
	f := &fakeStream{kind: xapi.StreamReplies}
	for i := 0; i < 20; i++ {
		f.pages = append(f.pages, fakePage{items: posts("100"), next: "more"})
	}
	c, _ := testCoordinator(t, f)

	res, err := c.Run(context.Background(), "1", false, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Pages)
	assert.Len(t, f.calls, 10)
}

func TestRunProgressEvents(t *testing.T) {
	f := &fakeStream{kind: xapi.StreamReplies, pages: []fakePage{
		{items: posts("200"), next: "tok1"},
		{items: posts("100"), next: "tok2"},
	}}
	c, _ := testCoordinator(t, f)

	var events []EventType
	_, err := c.Run(context.Background(), "1", false, func(ev Event) {
		events = append(events, ev.Type)
	})
	require.NoError(t, err)
	assert.Equal(t, []EventType{
		EventFetching, EventNewItems,
		EventFetching, EventNewItems,
		EventFetching, // third request finds the stream exhausted
		EventDone,
	}, events)
}

func TestRunProgressTerminatesWithErrorEvent(t *testing.T) {
	f := &fakeStream{kind: xapi.StreamReplies, pages: []fakePage{
		{err: errs.New(errs.ErrorTypeNetwork, "boom")},
	}}
	c, _ := testCoordinator(t, f)

	var events []EventType
	_, err := c.Run(context.Background(), "1", false, func(ev Event) {
		events = append(events, ev.Type)
	})
	require.NoError(t, err)
	assert.Equal(t, []EventType{EventFetching, EventError}, events)
}
