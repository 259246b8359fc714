// Package api exposes the extraction pipeline over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/poiesic/docsift/pipeline"
	"github.com/poiesic/docsift/rules"
	"github.com/poiesic/docsift/source"
	"github.com/poiesic/docsift/storage"
)

// DefaultMaxBodyBytes caps an extract request body.
const DefaultMaxBodyBytes = 64 << 20

// Engine is the subset of docsift.Engine the server needs.
type Engine interface {
	NewPipeline(src source.Source, opts ...pipeline.Option) (*pipeline.Pipeline, error)
	Table() *rules.Table
	Runs() storage.RunRepository
}

// Server is the HTTP API server for docsift.
type Server struct {
	router       chi.Router
	engine       Engine
	log          *slog.Logger
	maxBodyBytes int64
}

// NewServer creates and configures the HTTP server.
func NewServer(engine Engine, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		engine:       engine,
		log:          log.With("component", "api"),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/extract", s.handleExtract)
		r.Get("/domains", s.handleDomains)
		r.Get("/runs", s.handleRecentRuns)
		r.Get("/runs/{runID}", s.handleGetRun)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// Serve runs an http.Server on addr until ctx is cancelled, then shuts it
// down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down")
		return srv.Shutdown(context.Background())
	}
}
