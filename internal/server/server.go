// Package server exposes schema generation, share codes and live design
// sessions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tordrt/schemadraft/internal/config"
	"github.com/tordrt/schemadraft/internal/layout"
	"github.com/tordrt/schemadraft/internal/provider"
	"github.com/tordrt/schemadraft/internal/reconcile"
	"github.com/tordrt/schemadraft/internal/server/middleware"
	"github.com/tordrt/schemadraft/internal/store"
)

// Server is the HTTP front end. It owns the router and the per-session
// diagram layouts; sessions themselves live in the registry.
type Server struct {
	cfg      config.Server
	canvas   layout.Canvas
	router   chi.Router
	sessions *reconcile.Registry
	store    *store.Store
	provider *provider.Provider
	logger   *slog.Logger

	mu      sync.Mutex
	layouts map[string]*diagramState

	// streams is cancelled on shutdown so open event streams end.
	streams     context.Context
	stopStreams context.CancelFunc
}

// diagramState serializes access to one session's Layout.
type diagramState struct {
	mu     sync.Mutex
	layout *layout.Layout
}

// New wires routes and middleware. Call ListenAndServe to start.
func New(cfg config.Config, sessions *reconcile.Registry, st *store.Store, prov *provider.Provider, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg.Server,
		canvas:   cfg.Canvas,
		sessions: sessions,
		store:    st,
		provider: prov,
		logger:   logger,
		layouts:  make(map[string]*diagramState),
	}
	s.streams, s.stopStreams = context.WithCancel(context.Background())
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.RateLimit(s.cfg.RateLimit)).Post("/generate-schema", s.handleGenerateSchema)

		r.Post("/schema", s.handleSaveSchema)
		r.Get("/schema", s.handleLoadSchema)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/apply", s.handleApply)
				r.With(middleware.RateLimit(s.cfg.RateLimit)).Post("/generate", s.handleSessionGenerate)
				r.Put("/streaming", s.handleSetStreaming)
				r.Get("/events", s.handleEvents)
				r.Get("/code/{format}", s.handleCode)
				r.Get("/diagram", s.handleDiagram)
				r.Put("/diagram/nodes/{table}", s.handleMoveNode)
				r.Post("/share", s.handleShare)
			})
		})
	})

	s.router = r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

// ListenAndServe serves until SIGINT or SIGTERM, then drains in-flight
// requests within the configured shutdown timeout.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

// Serve listens on the configured address and runs the HTTP server until
// ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("server listen: %w", err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener runs the HTTP server on ln until ctx is done. Shutdown ends
// open event streams, then waits for the remaining requests.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	httpServer.RegisterOnShutdown(s.stopStreams)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// diagram returns the layout state for a session, creating it on first use.
func (s *Server) diagram(id string) *diagramState {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.layouts[id]
	if !ok {
		d = &diagramState{layout: layout.New(s.canvas)}
		s.layouts[id] = d
	}
	return d
}

func (s *Server) dropDiagram(id string) {
	s.mu.Lock()
	delete(s.layouts, id)
	s.mu.Unlock()
}
