package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Server exposes the swarm's operational endpoints on a port separate
// from anything the miners themselves talk to: health probes always,
// Prometheus metrics only when enabled in the runtime config.
type Server struct {
	httpServer   *http.Server
	port         int
	serveMetrics bool
}

// NewServer creates the ops server. When serveMetrics is false the
// /metrics route is not registered at all.
func NewServer(port int, serveMetrics bool) *Server {
	return &Server{
		port:         port,
		serveMetrics: serveMetrics,
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", HealthHandler())
	mux.HandleFunc("/health/live", LivenessHandler())
	mux.HandleFunc("/health/ready", ReadinessHandler())

	if s.serveMetrics {
		mux.Handle("/metrics", MetricsHandler())
	}

	return mux
}

// Start builds the route set and blocks serving it.
func (s *Server) Start() error {
	mux := s.routes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
