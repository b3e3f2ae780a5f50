// Command worker runs the audit reconciler on a cron schedule. It replays
// schedule advances for obligations whose completion was recorded but whose
// pointer write was lost.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/rezkam/stayops/internal/application/audit"
	"github.com/rezkam/stayops/internal/config"
	"github.com/rezkam/stayops/internal/infrastructure/observability"
	"github.com/rezkam/stayops/internal/infrastructure/persistence/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	obsCfg := observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
	}
	lp, logger, err := observability.InitLogger(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lp.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "failed to shutdown logger provider", "error", err)
		}
	}()
	slog.SetDefault(logger)

	store, err := postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer store.Close()

	reconciler := audit.NewReconciler(store, store)

	sweep := func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), cfg.OperationTimeout)
		defer cancel()

		repaired, err := reconciler.Reconcile(sweepCtx)
		if err != nil {
			slog.ErrorContext(sweepCtx, "audit sweep failed", "error", err)
			return
		}
		slog.InfoContext(sweepCtx, "audit sweep complete", "repaired", repaired)
	}

	engine := cron.New()
	if _, err := engine.AddFunc(cfg.ReconcileSchedule, sweep); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", cfg.ReconcileSchedule, err)
	}

	// Run one sweep at startup so a crashed deployment does not wait a full
	// cron interval before repairing.
	sweep()

	engine.Start()
	slog.InfoContext(ctx, "reconciler worker started", "schedule", cfg.ReconcileSchedule)

	<-ctx.Done()

	slog.Info("stopping reconciler worker")
	stopCtx := engine.Stop()
	<-stopCtx.Done()
	slog.Info("reconciler worker stopped")

	return nil
}
