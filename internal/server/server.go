// Package server exposes the ingested feed as a read-only JSON API for a
// presentation layer.
//
// The server keeps a single immutable pipeline result. Queries filter that
// snapshot and never touch the feed; POST /api/reload reruns the pipeline and
// swaps the snapshot only when the run succeeds.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/minaironcapital/dividendos/internal/config"
	"github.com/minaironcapital/dividendos/internal/converter"
)

// Runner produces a pipeline result. *converter.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context) (*converter.Result, error)
}

// Server serves the API over the latest successful pipeline result.
type Server struct {
	runner   Runner
	cfg      config.ServerConfig
	logger   *slog.Logger
	snapshot atomic.Pointer[converter.Result]

	// reloadMu serializes reloads; readers never take it.
	reloadMu sync.Mutex
}

// New creates a server. No data is loaded until Reload is called.
func New(runner Runner, cfg config.ServerConfig, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		runner: runner,
		cfg:    cfg,
		logger: log.With("component", "server"),
	}
}

// Snapshot returns the current result, or nil before the first load.
func (s *Server) Snapshot() *converter.Result {
	return s.snapshot.Load()
}

// Reload reruns the pipeline. On failure the previous snapshot is kept.
func (s *Server) Reload(ctx context.Context) (*converter.Result, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	result, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "reload failed, keeping previous snapshot", "error", err)
		return nil, err
	}

	s.snapshot.Store(result)
	s.logger.InfoContext(ctx, "snapshot replaced",
		"run_id", result.RunID,
		"records", len(result.Records),
	)
	return result, nil
}

// Handler returns the HTTP handler with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/timeline", s.handleTimeline)
		r.Get("/records", s.handleRecords)
		r.Get("/statuses", s.handleStatuses)
		r.Get("/diagnostics", s.handleDiagnostics)
		r.Post("/reload", s.handleReload)
	})

	return r
}

// Run loads the feed once, then serves until ctx is cancelled. A failed
// initial load is logged and the server starts anyway; data endpoints answer
// 503 until a reload succeeds.
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.Reload(ctx); err != nil {
		s.logger.ErrorContext(ctx, "initial load failed", "error", err)
	}

	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// requestLogger logs one line per request.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.LogAttrs(r.Context(), slog.LevelDebug, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
