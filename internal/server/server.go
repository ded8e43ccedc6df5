package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	httpapi "github.com/drydeck/drydeck/internal/http"
	"github.com/drydeck/drydeck/internal/logging"
	"github.com/drydeck/drydeck/internal/runtimeconfig"
	"github.com/drydeck/drydeck/pkg/interfaces"
)

const defaultShutdownTimeout = 10 * time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Server wraps the HTTP server and its middleware stack.
type Server struct {
	cfg     runtimeconfig.HTTPConfig
	logger  interfaces.Logger
	server  *http.Server
	mux     *http.ServeMux
	metrics *Metrics
	health  HealthCheck
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and lifecycle logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables /metrics and the request metrics middleware.
func WithMetrics(metrics *Metrics) Option {
	return func(s *Server) {
		s.metrics = metrics
	}
}

// WithHealthCheck makes /healthz report 503 while check fails.
func WithHealthCheck(check HealthCheck) Option {
	return func(s *Server) {
		s.health = check
	}
}

// New constructs a server with the health, metrics and admin API routes.
func New(cfg runtimeconfig.HTTPConfig, api *httpapi.AdminAPI, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.NoOp(),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
	if api != nil {
		if err := api.Register(s.mux); err != nil {
			return nil, fmt.Errorf("server: register admin api: %w", err)
		}
	}

	var handler http.Handler = s.mux
	if cfg.RateLimit > 0 && cfg.RateWindow > 0 {
		handler = RateLimit(cfg.RateLimit, cfg.RateWindow)(handler)
	}
	if s.metrics != nil {
		handler = s.metrics.Middleware(handler)
	}
	handler = RequestLogging(s.logger, handler)

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	return s, nil
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Mux exposes the underlying mux for route registration by other packages.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Shutdown gracefully stops the server within the provided context timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server.shutdown")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server.stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn("server.health.failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
