package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/pagelens"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultRequestTimeout bounds a single API request, including the capture.
const DefaultRequestTimeout = 60 * time.Second

// Server serves the pagelens JSON API.
type Server struct {
	server *http.Server
	ln     net.Listener
	router chi.Router

	pages      pagelens.PageService
	logger     *slog.Logger
	gatherer   prometheus.Gatherer
	timeout    time.Duration
	middleware []func(http.Handler) http.Handler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the access and error logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics exposes the metrics gathered by g on /metrics.
func WithMetrics(g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithRequestTimeout bounds each request. Defaults to DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithMiddleware wraps the API routes with additional middleware.
func WithMiddleware(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(s *Server) {
		s.middleware = append(s.middleware, mw...)
	}
}

// NewServer returns a Server backed by pages.
func NewServer(pages pagelens.PageService, opts ...ServerOption) *Server {
	s := &Server{
		pages:   pages,
		logger:  slog.New(slog.DiscardHandler),
		timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))
		r.Use(s.middleware...)
		r.Post("/scrape", s.handleScrape)
		r.Get("/view", s.handleView)
	})

	s.router = r
	s.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Open starts listening on addr and serves in the background.
func (s *Server) Open(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the listening address, or "" before Open.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Close gracefully shuts down the server.
func (s *Server) Close(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
