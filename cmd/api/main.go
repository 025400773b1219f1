package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/evend-recon/internal/app"
	"github.com/josh-kwaku/evend-recon/internal/config"
	"github.com/josh-kwaku/evend-recon/internal/logging"
	"github.com/josh-kwaku/evend-recon/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("evend-recon-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	applied, err := a.Migrate(ctx)
	if err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied", "count", len(applied))

	sched := scheduler.New(logging.WithLogger(ctx, logger), logger)
	if err := registerJobs(sched, a, cfg); err != nil {
		slog.Error("failed to register jobs", "error", err)
		os.Exit(1)
	}
	sched.Start()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(a, cfg),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RunTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	sched.Stop()
	slog.Info("server stopped")
}

func registerJobs(s *scheduler.Scheduler, a *app.App, cfg *config.Config) error {
	if err := s.AddJob("@every 1h", scheduler.NewIdempotencyCleanupJob(a.Idempotency)); err != nil {
		return err
	}
	if !cfg.AutoReconcile {
		slog.Info("automatic reconciliation disabled")
		return nil
	}
	return s.AddJob(cfg.AutoReconcileSchedule, scheduler.NewDailyReconciliationJob(a.Reconciliation))
}
