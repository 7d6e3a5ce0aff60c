// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gymdesk/internal/membership"
	"gymdesk/internal/plans"
	"gymdesk/internal/platform/httpx"
	"gymdesk/internal/platform/logger"
	"gymdesk/internal/reporting"
)

const shutdownTimeout = 10 * time.Second

// Deps are the services the HTTP surface is built from.
type Deps struct {
	Catalog        *plans.Catalog
	Members        membership.Service
	Reports        reporting.Service
	Log            *logger.Logger
	Registry       *prometheus.Registry
	ServiceName    string
	Now            func() time.Time
	// AllowedOrigins enables CORS for browser clients; empty disables it.
	AllowedOrigins []string
}

// Server is the front desk HTTP server.
type Server struct {
	router chi.Router
	log    *logger.Logger
}

type healthResponse struct {
	OK      bool      `json:"ok"`
	Service string    `json:"service"`
	Time    time.Time `json:"time"`
}

// New wires middleware and every route.
func New(d Deps) (*Server, error) {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}
	metrics, err := newHTTPMetrics(d.Registry)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Log))
	r.Use(metrics.middleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthResponse{OK: true, Service: d.ServiceName, Time: d.Now().UTC()})
	})
	r.Get("/plans", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, d.Catalog.Plans())
	})
	r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))

	membership.NewHandler(d.Members, d.Log).Routes(r)
	reporting.NewHandler(d.Reports, d.Log).Routes(r)

	return &Server{router: r, log: d.Log}, nil
}

func (s *Server) Handler() http.Handler { return s.router }

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server start: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}
