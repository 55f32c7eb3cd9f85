// Package server implements the HTTP servers for health checks, snapshots
// and metrics.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMetricsPath is served when Config.MetricsPath is empty.
const DefaultMetricsPath = "/metrics"

// HealthChecker interface for checking component health.
type HealthChecker interface {
	Liveness() bool
	Readiness(ctx context.Context) bool
	IsHealthy() bool
	GetStatus() map[string]string
}

// Config contains HTTP server configuration.
type Config struct {
	HealthPort     int
	MetricsPort    int
	MetricsPath    string
	MetricsEnabled bool
}

// Server represents the HTTP servers. The health server also serves window
// snapshots; the metrics server exposes the Prometheus registry.
type Server struct {
	healthServer  *http.Server
	metricsServer *http.Server
	logger        *slog.Logger
}

// NewServer creates the HTTP servers. The metrics server is omitted when
// metrics are disabled. summaries may be nil.
func NewServer(
	cfg Config,
	healthChecker HealthChecker,
	sources *Sources,
	summaries SummaryProvider,
	registry *prometheus.Registry,
	logger *slog.Logger,
) *Server {
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("GET /health/live", LivenessHandler(healthChecker, logger))
	healthMux.HandleFunc("GET /health/ready", ReadinessHandler(healthChecker, logger))
	healthMux.HandleFunc("GET /snapshot/{source}", SnapshotHandler(sources, logger))
	healthMux.HandleFunc("GET /snapshot/{source}/summary", SummaryHandler(sources, summaries, logger))

	s := &Server{
		healthServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.HealthPort),
			Handler:      healthMux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}

	if cfg.MetricsEnabled {
		path := cfg.MetricsPath
		if path == "" {
			path = DefaultMetricsPath
		}
		metricsMux := http.NewServeMux()
		metricsMux.Handle(path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

		s.metricsServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:      metricsMux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
	}

	return s
}

// HealthHandler returns the handler of the health server.
func (s *Server) HealthHandler() http.Handler {
	return s.healthServer.Handler
}

// MetricsHandler returns the handler of the metrics server, or nil when
// metrics are disabled.
func (s *Server) MetricsHandler() http.Handler {
	if s.metricsServer == nil {
		return nil
	}
	return s.metricsServer.Handler
}

// Start binds both listeners and serves in the background. A port that
// cannot be bound is reported immediately.
func (s *Server) Start() error {
	servers := []*http.Server{s.healthServer}
	if s.metricsServer != nil {
		servers = append(servers, s.metricsServer)
	}

	listeners := make([]net.Listener, 0, len(servers))
	for _, srv := range servers {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, l := range listeners {
				l.Close()
			}
			return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
		}
		listeners = append(listeners, ln)
	}

	for i, srv := range servers {
		go func(srv *http.Server, ln net.Listener) {
			s.logger.Info("starting http server", "addr", ln.Addr().String())
			if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				s.logger.Error("http server failed", "addr", srv.Addr, "error", err)
			}
		}(srv, listeners[i])
	}

	return nil
}

// Shutdown gracefully shuts down both servers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP servers")

	servers := []*http.Server{s.healthServer}
	if s.metricsServer != nil {
		servers = append(servers, s.metricsServer)
	}

	errChan := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			errChan <- srv.Shutdown(ctx)
		}(srv)
	}

	var lastErr error
	for range servers {
		if err := <-errChan; err != nil {
			s.logger.Error("error shutting down server", "error", err)
			lastErr = err
		}
	}

	return lastErr
}
