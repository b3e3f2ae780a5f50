package config

import (
	"fmt"
	"time"

	"github.com/rezkam/stayops/internal/env"
)

// WorkerConfig holds all configuration for the reconciler worker binary.
type WorkerConfig struct {
	Database DatabaseConfig

	// ReconcileSchedule is the cron expression for the audit sweep.
	ReconcileSchedule string        `env:"STAYOPS_RECONCILE_SCHEDULE" default:"*/15 * * * *"`
	OperationTimeout  time.Duration `env:"STAYOPS_WORKER_OPERATION_TIMEOUT" default:"5m"`

	Observability ObservabilityConfig
}

// LoadWorkerConfig loads and validates worker configuration from environment.
func LoadWorkerConfig() (*WorkerConfig, error) {
	cfg := &WorkerConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load worker config: %w", err)
	}

	return cfg, nil
}
