// Package server exposes the graph state core over HTTP. Graphs are
// held in memory and addressed by generated IDs; saved views go
// through a pluggable viewstore backend.
//
// Every mutation of one graph is serialized behind that graph's lock,
// matching the single-threaded contract of the state core.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nestview/nestview/pkg/cache"
	"github.com/nestview/nestview/pkg/errors"
	"github.com/nestview/nestview/pkg/hypergraph"
	"github.com/nestview/nestview/pkg/ingest"
	"github.com/nestview/nestview/pkg/layout"
	"github.com/nestview/nestview/pkg/observability"
	"github.com/nestview/nestview/pkg/scene"
	"github.com/nestview/nestview/pkg/viewstore"
)

// Options configures a server.
type Options struct {
	// Logger receives request and mutation diagnostics. Nil discards.
	Logger *log.Logger

	// Views is the saved-view backend. Nil falls back to an
	// in-memory store.
	Views viewstore.Store

	// GraphConfig is the dimension config for ingested graphs.
	// Zero value uses the defaults.
	GraphConfig hypergraph.Config

	// Layouts caches layout results keyed by the content hash of the
	// visible state. Nil falls back to an in-memory cache; use
	// [cache.NewNullCache] to disable caching.
	Layouts cache.Cache
}

// Server is the HTTP API for the graph state core.
type Server struct {
	router  chi.Router
	logger  *log.Logger
	graphs  *registry
	views   viewstore.Store
	cfg     hypergraph.Config
	engines map[string]layout.Engine
	layouts cache.Cache
}

// New assembles the router.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	views := opts.Views
	if views == nil {
		views = viewstore.NewMemoryStore()
	}
	layouts := opts.Layouts
	if layouts == nil {
		layouts = cache.NewMemoryCache()
	}

	s := &Server{
		logger:  logger,
		graphs:  newRegistry(),
		views:   views,
		cfg:     opts.GraphConfig,
		layouts: layouts,
		engines: map[string]layout.Engine{
			"grid": layout.NewGrid(),
			"dot":  layout.NewDot(),
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/graphs", func(r chi.Router) {
		r.Post("/", s.handleCreateGraph)
		r.Get("/", s.handleListGraphs)
		r.Route("/{graphID}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteGraph)
			r.Get("/scene", s.handleScene)
			r.Get("/validate", s.handleValidate)
			r.Post("/collapse/{containerID}", s.handleCollapse)
			r.Post("/expand/{containerID}", s.handleExpand)
			r.Post("/views", s.handleCaptureView)
			r.Get("/views", s.handleListViews)
		})
	})
	r.Route("/views/{viewID}", func(r chi.Router) {
		r.Get("/", s.handleGetView)
		r.Delete("/", s.handleDeleteView)
		r.Post("/apply/{graphID}", s.handleApplyView)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start))
	})
}

// =============================================================================
// Graph Handlers
// =============================================================================

// handleCreateGraph ingests a compiler payload. The hierarchy choice
// comes from the ?hierarchy query parameter, defaulting to the
// payload's own selection.
func (s *Server) handleCreateGraph(w http.ResponseWriter, r *http.Request) {
	payload, err := ingest.ReadPayload(r.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	hierarchy := r.URL.Query().Get("hierarchy")
	g := hypergraph.New(s.cfg, s.logger)
	if err := ingest.Load(g, payload, ingest.Options{
		Hierarchy:      hierarchy,
		UseShortLabels: r.URL.Query().Get("labels") == "short",
		Logger:         s.logger,
	}); err != nil {
		s.writeError(w, err)
		return
	}

	id := s.graphs.add(g, hierarchy)
	s.logger.Info("graph created", "graph", id, "nodes", len(payload.Nodes))

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"id":    id,
		"stats": g.Stats(),
	})
}

func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"graphs": s.graphs.ids()})
}

func (s *Server) handleDeleteGraph(w http.ResponseWriter, r *http.Request) {
	if err := s.graphs.remove(chi.URLParam(r, "graphID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleScene returns the renderable snapshot. An optional ?layout=
// engine name computes and persists geometry first.
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	engineName := r.URL.Query().Get("layout")

	var sc *scene.Scene
	err := s.graphs.with(graphID, func(g *hypergraph.Graph, _ string) error {
		if engineName != "" {
			if err := s.runLayout(r.Context(), g, graphID, engineName); err != nil {
				return err
			}
		}
		sc = scene.Build(g, graphID)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sc)
}

func (s *Server) runLayout(ctx context.Context, g *hypergraph.Graph, graphID, name string) error {
	engine, ok := s.engines[name]
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "unknown layout engine %q", name)
	}

	// Identical visible states share layout results: the key hashes
	// the pre-layout snapshot, so any fold or hide produces a new key.
	key := ""
	if sum, err := scene.Build(g, graphID).Checksum(); err == nil {
		key = cache.LayoutKey(sum, engine.Name())
		if data, hit, err := s.layouts.Get(ctx, key); err == nil && hit {
			var res layout.Result
			if json.Unmarshal(data, &res) == nil {
				observability.Store().OnHit(ctx, "layout-cache", "layout")
				return layout.Apply(g, &res)
			}
		}
		observability.Store().OnMiss(ctx, "layout-cache", "layout")
	}

	start := time.Now()
	observability.Graph().OnLayoutStart(ctx, engine.Name(), len(g.VisibleNodes()))
	res, err := engine.Layout(ctx, g)
	if err == nil {
		err = layout.Apply(g, res)
	}
	observability.Graph().OnLayoutComplete(ctx, engine.Name(), time.Since(start), err)

	if err == nil && key != "" {
		if data, merr := json.Marshal(res); merr == nil {
			if s.layouts.Set(ctx, key, data, time.Hour) == nil {
				observability.Store().OnWrite(ctx, "layout-cache", "layout", len(data))
			}
		}
	}
	return err
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")

	var violations []hypergraph.Violation
	err := s.graphs.with(graphID, func(g *hypergraph.Graph, _ string) error {
		violations = g.Validate()
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"violations": violations})
}

func (s *Server) handleCollapse(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "collapse", func(g *hypergraph.Graph, containerID string) error {
		if containerID == "*" {
			return g.CollapseAll()
		}
		return g.CollapseContainer(containerID)
	})
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	recursive := r.URL.Query().Get("all") == "true"
	s.mutate(w, r, "expand", func(g *hypergraph.Graph, containerID string) error {
		switch {
		case containerID == "*":
			return g.ExpandAll()
		case recursive:
			return g.ExpandContainerAll(containerID)
		default:
			return g.ExpandContainer(containerID)
		}
	})
}

// mutate runs one collapse or expand and answers with the fresh scene.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, op string, fn func(g *hypergraph.Graph, containerID string) error) {
	graphID := chi.URLParam(r, "graphID")
	containerID := chi.URLParam(r, "containerID")

	var sc *scene.Scene
	start := time.Now()
	err := s.graphs.with(graphID, func(g *hypergraph.Graph, _ string) error {
		if err := fn(g, containerID); err != nil {
			return err
		}
		sc = scene.Build(g, graphID)
		return nil
	})

	hooks := observability.Graph()
	if op == "collapse" {
		hooks.OnCollapse(r.Context(), graphID, containerID, time.Since(start), err)
	} else {
		hooks.OnExpand(r.Context(), graphID, containerID, time.Since(start), err)
	}

	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sc)
}

// =============================================================================
// View Handlers
// =============================================================================

type captureViewRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCaptureView(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")

	var req captureViewRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	var v *viewstore.View
	err := s.graphs.with(graphID, func(g *hypergraph.Graph, hierarchy string) error {
		v = viewstore.Capture(g, graphID, req.Name, hierarchy)
		return nil
	})
	if err == nil {
		err = s.views.Put(r.Context(), v)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleListViews(w http.ResponseWriter, r *http.Request) {
	views, err := s.views.List(r.Context(), chi.URLParam(r, "graphID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if views == nil {
		views = []viewstore.View{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"views": views})
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	v, err := s.views.Get(r.Context(), chi.URLParam(r, "viewID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	if err := s.views.Delete(r.Context(), chi.URLParam(r, "viewID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleApplyView restores a saved view onto a graph and answers with
// the resulting scene.
func (s *Server) handleApplyView(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")

	v, err := s.views.Get(r.Context(), chi.URLParam(r, "viewID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var sc *scene.Scene
	err = s.graphs.with(graphID, func(g *hypergraph.Graph, _ string) error {
		if err := v.Apply(g); err != nil {
			return err
		}
		sc = scene.Build(g, graphID)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sc)
}

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body")
	}
	return nil
}
