// Package server exposes unified search over HTTP.
//
//	GET /search?s=EGFR&s=Melanoma    interpret and search
//	GET /search?g=BRAF,EGFR&d=...    structured fallback when no s is given
//	GET /healthz                     liveness
//	GET /metrics                     Prometheus scrape (when metrics are on)
//
// Oracle and storage failures answer 500. An empty or all-unknown query
// answers 200 with no rows.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/interpret"
	"github.com/vanallenlab/almanac/internal/metrics"
	"github.com/vanallenlab/almanac/internal/store"
)

// Searcher runs categorized searches. *store.Store implements it.
type Searcher interface {
	Search(ctx context.Context, cats map[category.Category][]string) ([]store.Row, error)
}

// Server serves the search API.
type Server struct {
	interpreter *interpret.Interpreter
	searcher    Searcher
	metrics     *metrics.Metrics
	limiter     *rate.Limiter
	logger      *slog.Logger
	newID       func() string
	readTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the base logger. Each request logs through a child
// carrying its request_id.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records request and search metrics and mounts /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithRateLimit limits /search to perSecond requests with the given
// burst. perSecond <= 0 disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithRequestIDs overrides request id generation.
func WithRequestIDs(gen func() string) Option {
	return func(s *Server) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithReadTimeout sets the HTTP read timeout used by ListenAndServe.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = d
	}
}

// New creates a Server.
func New(interp *interpret.Interpreter, searcher Searcher, opts ...Option) *Server {
	s := &Server{
		interpreter: interp,
		searcher:    searcher,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:       newRequestID,
		readTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newRequestID returns a time-ordered UUIDv7, falling back to a random
// v4 if the clock source fails.
func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /search", s.rateLimit(http.HandlerFunc(s.handleSearch)))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return s.requestID(s.instrument(mux))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. Requests already in flight
// at that point run to completion before Serve returns.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// Request contexts keep ctx's values but not its cancellation, so
	// shutdown drains in-flight searches instead of aborting them.
	base := context.WithoutCancel(ctx)
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.readTimeout,
		ReadHeaderTimeout: s.readTimeout,
		BaseContext:       func(net.Listener) context.Context { return base },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
