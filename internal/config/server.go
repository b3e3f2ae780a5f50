// Package config holds environment-driven configuration for the binaries.
package config

import (
	"fmt"
	"time"

	"github.com/rezkam/stayops/internal/env"
)

// ServerConfig holds all configuration for the API server binary.
type ServerConfig struct {
	Database        DatabaseConfig
	HTTP            HTTPConfig
	Pagination      PaginationConfig
	Observability   ObservabilityConfig
	ShutdownTimeout time.Duration `env:"STAYOPS_SHUTDOWN_TIMEOUT" default:"10s"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host              string        `env:"STAYOPS_HTTP_HOST"`
	Port              string        `env:"STAYOPS_HTTP_PORT" default:"8080"`
	ReadTimeout       time.Duration `env:"STAYOPS_HTTP_READ_TIMEOUT"`
	WriteTimeout      time.Duration `env:"STAYOPS_HTTP_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `env:"STAYOPS_HTTP_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `env:"STAYOPS_HTTP_READ_HEADER_TIMEOUT"`
	MaxHeaderBytes    int           `env:"STAYOPS_HTTP_MAX_HEADER_BYTES"`
	MaxBodyBytes      int64         `env:"STAYOPS_HTTP_MAX_BODY_BYTES"`
}

// LoadServerConfig loads and validates server configuration from environment.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return cfg, nil
}
