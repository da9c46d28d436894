// Package server exposes the sync engine's local status endpoints: a
// liveness probe and a snapshot of the realtime channel and cache. It is
// an operator surface, not a data path.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Status is one snapshot of the engine for the /status endpoint.
type Status struct {
	Environment    string    `json:"environment"`
	Realtime       string    `json:"realtime"`
	LastEventAt    time.Time `json:"lastEventAt,omitzero"`
	CachedEntities int       `json:"cachedEntities"`
}

// StatusFunc produces the current snapshot.
type StatusFunc func() Status

type Server struct {
	Router *chi.Mux
	Port   int

	logger *slog.Logger
	http   *http.Server
}

func New(port int, logger *slog.Logger, status StatusFunc) *Server {
	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestID)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "storefront-sync")
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		snap := status()
		AddLogField(req.Context(), "realtime", snap.Realtime)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snap)
	})

	return &Server{
		Router: r,
		Port:   port,
		logger: logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting status server", slog.Int("port", s.Port))
	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.Port),
		Handler: s.Router,
	}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
