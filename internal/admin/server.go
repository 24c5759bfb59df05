// Package admin serves the health and metrics endpoints of a running client.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rickgao/playersocket/internal/connection"
	"github.com/rickgao/playersocket/internal/version"
)

// Status is the view of a connection manager the health endpoint reports.
type Status interface {
	PlayerID() string
	IsConnected() bool
	State() connection.ReadyState
	Attempts() int
}

// Health is the body of GET /health.
type Health struct {
	Status    string       `json:"status"`
	PlayerID  string       `json:"player_id"`
	State     string       `json:"state"`
	Connected bool         `json:"connected"`
	Attempts  int          `json:"reconnect_attempts"`
	Build     version.Info `json:"build"`
}

// Server exposes /health and the Prometheus handler.
type Server struct {
	router *chi.Mux
	http   *http.Server
	logger *slog.Logger
}

// NewServer builds the admin router. A nil gatherer serves the default
// Prometheus registry.
func NewServer(port int, metricsPath string, status Status, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(status))
	r.Handle(metricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &Server{
		router: r,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With("component", "admin"),
	}
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("admin server listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown admin server: %w", err)
	}
	return nil
}

func healthHandler(status Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := Health{
			Status:    "healthy",
			PlayerID:  status.PlayerID(),
			State:     status.State().String(),
			Connected: status.IsConnected(),
			Attempts:  status.Attempts(),
			Build:     version.Get(),
		}

		code := http.StatusOK
		if !h.Connected {
			h.Status = "disconnected"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(h)
	}
}
