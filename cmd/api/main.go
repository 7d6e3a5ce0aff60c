// cmd/api/main.go
package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"gymdesk/internal/config"
	"gymdesk/internal/membership"
	"gymdesk/internal/plans"
	"gymdesk/internal/platform/logger"
	"gymdesk/internal/reporting"
	"gymdesk/internal/server"
	"gymdesk/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// no logger yet
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal("failed to set up tracing", "error", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	repo, closeRepo := openRepository(ctx, cfg, log)
	defer closeRepo()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observer, err := membership.NewPrometheusObserver(registry)
	if err != nil {
		log.Fatal("failed to register metrics", "error", err)
	}

	catalog := plans.Default()
	members := membership.NewService(repo, catalog, log,
		membership.WithLocation(cfg.Timezone),
		membership.WithRateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
		membership.WithObserver(observer),
	)
	reports := reporting.NewService(members, reporting.NewAggregator(catalog, cfg.Timezone), nil)

	srv, err := server.New(server.Deps{
		Catalog:        catalog,
		Members:        members,
		Reports:        reports,
		Log:            log,
		Registry:       registry,
		ServiceName:    cfg.ServiceName,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		log.Fatal("failed to build server", "error", err)
	}

	log.Info("starting gymdesk", "env", cfg.Env, "port", cfg.Port, "timezone", cfg.Timezone.String(), "postgres", cfg.UsesPostgres(), "tracing", tp.Enabled())
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil {
		log.Fatal("server error", "error", err)
	}
}

// openRepository picks PostgreSQL when DATABASE_URL is set and the in-memory store otherwise.
func openRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (membership.Repository, func()) {
	if !cfg.UsesPostgres() {
		log.Warn("DATABASE_URL not set, records are kept in memory only")
		return membership.NewMemoryRepository(), func() {}
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatal("database unreachable", "error", err)
	}

	repo := membership.NewPostgresRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("failed to prepare schema", "error", err)
	}
	return repo, func() { db.Close() }
}
