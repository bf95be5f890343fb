// Package dashboard serves the live feedback view: a server-rendered
// overview page, a JSON data API and an event-streamed run trigger.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"xfeedback/pkg/config"
	"xfeedback/pkg/ingest"
	"xfeedback/pkg/logger"
	"xfeedback/pkg/store"
	"xfeedback/pkg/xapi"
)

// RunFunc starts an ingestion run for one tracked post and reports
// progress through the callback. The dashboard serializes invocations;
// concurrent runs against one parent are not safe.
type RunFunc func(ctx context.Context, parentID string, progress ingest.ProgressFunc) error

// Server is the dashboard HTTP server.
type Server struct {
	cfg    config.DashboardConfig
	store  *store.Store
	runner RunFunc
	log    logger.Logger
	router chi.Router

	// runGate serializes /api/fetch so two triggers cannot race on the
	// same watermarks.
	runGate chan struct{}
}

// New builds a Server. runner may be nil, which disables /api/fetch.
func New(cfg config.DashboardConfig, st *store.Store, runner RunFunc, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}
	s := &Server{
		cfg:     cfg,
		store:   st,
		runner:  runner,
		log:     log,
		runGate: make(chan struct{}, 1),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleIndex)
	r.Get("/dashboard", s.handleIndex)
	r.Get("/api/data", s.handleData)
	r.Post("/api/fetch", s.handleFetch)
	s.router = r
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks serving the dashboard until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.WithField("addr", s.cfg.ListenAddr).Info("dashboard listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := collectData(r.Context(), s.store, s.cfg.ParentIDs)
	if err != nil {
		s.serverError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardPage.Execute(w, pageData{Data: data, ParentIDs: s.cfg.ParentIDs}); err != nil {
		s.log.WithError(err).Error("failed to render dashboard")
	}
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	data, err := collectData(r.Context(), s.store, s.cfg.ParentIDs)
	if err != nil {
		s.serverError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.WithError(err).Error("failed to encode dashboard data")
	}
}

// sseEvent is the wire form of one progress event.
type sseEvent struct {
	Type     string `json:"type"`
	ParentID string `json:"parent_id,omitempty"`
	Stream   string `json:"stream,omitempty"`
	Page     int    `json:"page,omitempty"`
	Total    int    `json:"total_pages,omitempty"`
	NewItems int    `json:"new_items,omitempty"`
	Saved    int    `json:"saved,omitempty"`
	Error    string `json:"error,omitempty"`
}

// handleFetch triggers an ingestion run for the requested post and
// streams progress as server-sent events, terminated by done or error.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		http.Error(w, "fetching is not enabled", http.StatusServiceUnavailable)
		return
	}

	parentID, err := xapi.ExtractPostID(r.URL.Query().Get("post"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	select {
	case s.runGate <- struct{}{}:
		defer func() { <-s.runGate }()
	default:
		http.Error(w, "a fetch is already running", http.StatusConflict)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeEvent := func(ev sseEvent) {
		payload, err := json.Marshal(ev)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	err = s.runner(r.Context(), parentID, func(ev ingest.Event) {
		out := sseEvent{
			Type:     string(ev.Type),
			ParentID: ev.ParentID,
			Stream:   string(ev.Kind),
			Page:     ev.Page,
			Total:    ev.TotalPages,
			NewItems: len(ev.Items),
			Saved:    ev.Saved,
		}
		if ev.Err != nil {
			out.Error = ev.Err.Error()
		}
		writeEvent(out)
	})
	if err != nil {
		writeEvent(sseEvent{Type: "error", ParentID: parentID, Error: err.Error()})
	}
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.log.WithError(err).Error("dashboard query failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}
