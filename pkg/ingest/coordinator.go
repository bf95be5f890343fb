// Package ingest drives incremental ingestion runs: it selects a fetch
// mode from stored watermarks, pages through a stream fetcher, persists
// every page immediately and commits watermarks once at run end.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"xfeedback/pkg/config"
	errs "xfeedback/pkg/errors"
	"xfeedback/pkg/logger"
	"xfeedback/pkg/ratelimit"
	"xfeedback/pkg/retry"
	"xfeedback/pkg/store"
	"xfeedback/pkg/xapi"
)

// Mode is the entry state of a run, computed once from the stored
// watermarks and the backfill flag before the first page is requested.
type Mode string

const (
	// ModeInitial fetches everything available, no bounds.
	ModeInitial Mode = "initial"
	// ModeIncremental fetches strictly newer than the forward watermark.
	ModeIncremental Mode = "incremental"
	// ModeBackfill fetches strictly older than the backward watermark.
	ModeBackfill Mode = "backfill"
)

// Result summarizes one completed run.
type Result struct {
	ParentID string
	Kind     xapi.StreamKind
	Mode     Mode
	Saved    int
	Pages    int

	// RateLimited is set when the run stopped early because the transport
	// reported a rate-limit reset beyond the wait ceiling.
	RateLimited bool

	// Err holds the fetch error that stopped the page loop, if any.
	// Items saved before the error stand; watermarks are not advanced.
	Err error
}

// Coordinator owns watermark transitions for one stream fetcher. It is
// not safe for concurrent runs against the same parent id; callers
// serialize per parent.
type Coordinator struct {
	cfg     *config.Config
	store   *store.Store
	fetcher xapi.StreamFetcher
	limiter ratelimit.Limiter
	log     logger.Logger
}

// New builds a Coordinator. A nil limiter disables inter-request pacing.
func New(cfg *config.Config, st *store.Store, fetcher xapi.StreamFetcher, limiter ratelimit.Limiter, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Coordinator{
		cfg:     cfg,
		store:   st,
		fetcher: fetcher,
		limiter: limiter,
		log:     log,
	}
}

// Run executes one ingestion run for parentID. It returns an error only
// for storage or watermark failures; fetch errors stop the page loop and
// are reported through Result.Err with partial progress kept.
func (c *Coordinator) Run(ctx context.Context, parentID string, backfill bool, progress ProgressFunc) (*Result, error) {
	kind := c.fetcher.Kind()
	log := c.log.WithFields(map[string]interface{}{
		"parent_id": parentID,
		"stream":    string(kind),
	})

	forward, _, err := c.store.GetWatermark(ctx, parentID, string(kind), store.Forward)
	if err != nil {
		return nil, err
	}
	backward, _, err := c.store.GetWatermark(ctx, parentID, string(kind), store.Backward)
	if err != nil {
		return nil, err
	}

	mode, bounds := selectMode(forward, backward, backfill)
	log.InfoWithFields("starting run", map[string]interface{}{
		"mode":  string(mode),
		"since": bounds.SinceID,
		"until": bounds.UntilID,
	})

	res := &Result{ParentID: parentID, Kind: kind, Mode: mode}
	var runMax, runMin string

	token := ""
	for page := 1; page <= c.cfg.Fetch.MaxPages; page++ {
		emit(progress, Event{Type: EventFetching, ParentID: parentID, Kind: kind,
			Page: page, TotalPages: c.cfg.Fetch.MaxPages})

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				res.Err = err
				break
			}
		}

		pageData, err := c.fetcher.FetchPage(ctx, parentID, bounds, token)
		if err != nil {
			res.Err = err
			res.RateLimited = isRateLimitSkip(err)
			if res.RateLimited {
				log.Warn("rate limit reset too far out, stopping run early")
			} else {
				log.WithError(err).Error("page fetch failed, keeping partial progress")
			}
			emit(progress, Event{Type: EventError, ParentID: parentID, Kind: kind, Err: err})
			break
		}

		if len(pageData.Items) == 0 {
			log.Debug("empty page, stream exhausted for these bounds")
			break
		}
		res.Pages++

		items := make([]store.Item, 0, len(pageData.Items))
		for _, p := range pageData.Items {
			runMax = store.MaxID(runMax, p.ID)
			runMin = store.MinID(runMin, p.ID)
			items = append(items, store.Item{
				ID:           p.ID,
				ParentID:     parentID,
				StreamKind:   string(kind),
				AuthorID:     p.AuthorID,
				AuthorHandle: p.AuthorHandle,
				Text:         p.Text,
				CreatedAt:    p.CreatedAt,
				Metrics:      string(p.PublicMetrics),
			})
		}

		// Durability first: every page lands before the next is requested,
		// so a failure later in the run never discards this page.
		if err := c.store.UpsertItems(ctx, items); err != nil {
			return res, fmt.Errorf("ingest: persist page %d: %w", page, err)
		}
		res.Saved += len(items)
		emit(progress, Event{Type: EventNewItems, ParentID: parentID, Kind: kind,
			Page: page, Items: items})

		if pageData.NextToken == "" {
			break
		}
		token = pageData.NextToken

		if err := retry.Wait(ctx, c.cfg.Fetch.InterPageDelay); err != nil {
			res.Err = err
			break
		}
	}

	// Watermarks move only after a clean loop, and only to ids actually
	// observed this run. A stopped loop leaves them untouched so the next
	// run re-requests from the old boundary and re-upserts harmlessly.
	if res.Err == nil && res.Saved > 0 {
		if err := c.commitWatermarks(ctx, parentID, kind, forward, backward, runMax, runMin); err != nil {
			return res, err
		}
	}

	log.InfoWithFields("run finished", map[string]interface{}{
		"saved": res.Saved,
		"pages": res.Pages,
	})
	// The event sequence terminates with exactly one of done or error.
	if res.Err == nil {
		emit(progress, Event{Type: EventDone, ParentID: parentID, Kind: kind, Saved: res.Saved})
	}
	return res, nil
}

// selectMode computes the run's entry state from the stored watermarks.
func selectMode(forward, backward string, backfill bool) (Mode, xapi.Bounds) {
	if backfill && backward != "" {
		return ModeBackfill, xapi.Bounds{UntilID: backward}
	}
	if forward != "" {
		return ModeIncremental, xapi.Bounds{SinceID: forward}
	}
	return ModeInitial, xapi.Bounds{}
}

// commitWatermarks advances each watermark past its stored value, never
// backwards. Bounds from the request are never written, only observed ids.
func (c *Coordinator) commitWatermarks(ctx context.Context, parentID string, kind xapi.StreamKind, forward, backward, runMax, runMin string) error {
	if runMax != "" && (forward == "" || store.CompareIDs(runMax, forward) > 0) {
		if err := c.store.SetWatermark(ctx, parentID, string(kind), store.Forward, runMax); err != nil {
			return err
		}
	}
	if runMin != "" && (backward == "" || store.CompareIDs(runMin, backward) < 0) {
		if err := c.store.SetWatermark(ctx, parentID, string(kind), store.Backward, runMin); err != nil {
			return err
		}
	}
	return nil
}

func isRateLimitSkip(err error) bool {
	var e *errs.Error
	if errors.As(err, &e) {
		return e.Type == errs.ErrorTypeRateLimitSkip
	}
	return false
}
