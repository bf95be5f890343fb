package ingest

import (
	"xfeedback/pkg/store"
	"xfeedback/pkg/xapi"
)

// EventType labels one progress event emitted during a run.
type EventType string

const (
	// EventFetching announces a page request about to be issued.
	EventFetching EventType = "fetching"
	// EventNewItems carries the items saved from one page.
	EventNewItems EventType = "new_items"
	// EventDone terminates the event sequence for a run.
	EventDone EventType = "done"
	// EventError reports the fetch error that stopped the page loop.
	EventError EventType = "error"
)

// Event is one progress update streamed to an observer while a run is in
// flight. The sequence always terminates with done or error.
type Event struct {
	Type       EventType       `json:"type"`
	ParentID   string          `json:"parent_id"`
	Kind       xapi.StreamKind `json:"stream"`
	Page       int             `json:"page,omitempty"`
	TotalPages int             `json:"total_pages,omitempty"`
	Saved      int             `json:"saved,omitempty"`
	Items      []store.Item    `json:"-"`
	Err        error           `json:"-"`
}

// Message renders the event for display surfaces that stream text.
func (e Event) Message() string {
	switch e.Type {
	case EventFetching:
		return "fetching page"
	case EventNewItems:
		return "saved new items"
	case EventDone:
		return "run complete"
	case EventError:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "run failed"
	}
	return string(e.Type)
}

// ProgressFunc observes run progress. A nil ProgressFunc is valid and
// disables event delivery.
type ProgressFunc func(Event)

func emit(fn ProgressFunc, ev Event) {
	if fn != nil {
		fn(ev)
	}
}
