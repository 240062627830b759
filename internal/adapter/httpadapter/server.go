package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the workflow and task API plus health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// ReadyFunc adapts a function to sharedobs.ReadinessChecker.
type ReadyFunc func(ctx context.Context) error

func (f ReadyFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

// AlwaysReady is used when no background intake gates readiness.
var AlwaysReady = ReadyFunc(func(context.Context) error { return nil })

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and the
// /api/v1 workflow routes.
func NewServer(addr string, api TaskAPI, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// Synchronous runs wait on every collaborator.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	h := &handlers{api: api, logger: logger}
	mux.HandleFunc("POST /api/v1/workflows", h.submit)
	mux.HandleFunc("POST /api/v1/workflows/run", h.run)
	mux.HandleFunc("GET /api/v1/tasks/{id}", h.status)
	mux.HandleFunc("POST /api/v1/tasks/{id}/pause", h.control(api.Pause))
	mux.HandleFunc("POST /api/v1/tasks/{id}/resume", h.control(api.Resume))
	mux.HandleFunc("POST /api/v1/tasks/{id}/cancel", h.control(api.Cancel))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
