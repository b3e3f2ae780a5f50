package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfig(t *testing.T) {
	t.Run("loads from environment", func(t *testing.T) {
		t.Setenv("STAYOPS_DB_DSN", "postgres://localhost:5432/stayops")
		t.Setenv("STAYOPS_HTTP_PORT", "9090")
		t.Setenv("STAYOPS_HTTP_READ_TIMEOUT", "20s")
		t.Setenv("STAYOPS_DEFAULT_PAGE_SIZE", "10")
		t.Setenv("STAYOPS_SHUTDOWN_TIMEOUT", "30s")

		cfg, err := LoadServerConfig()
		require.NoError(t, err)

		assert.Equal(t, "postgres://localhost:5432/stayops", cfg.Database.DSN)
		assert.Equal(t, "9090", cfg.HTTP.Port)
		assert.Equal(t, 20*time.Second, cfg.HTTP.ReadTimeout)
		assert.Equal(t, 10, cfg.Pagination.DefaultPageSize)
		assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("STAYOPS_DB_DSN", "postgres://localhost:5432/stayops")

		cfg, err := LoadServerConfig()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.HTTP.Port)
		assert.Equal(t, 25, cfg.Pagination.DefaultPageSize)
		assert.Equal(t, 100, cfg.Pagination.MaxPageSize)
		assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
		assert.False(t, cfg.Observability.OTelEnabled)
	})

	t.Run("missing DSN fails validation", func(t *testing.T) {
		t.Setenv("STAYOPS_DB_DSN", "")

		_, err := LoadServerConfig()
		assert.ErrorIs(t, err, ErrDSNRequired)
	})
}

func TestLoadWorkerConfig(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("STAYOPS_DB_DSN", "postgres://localhost:5432/stayops")

		cfg, err := LoadWorkerConfig()
		require.NoError(t, err)

		assert.Equal(t, "*/15 * * * *", cfg.ReconcileSchedule)
		assert.Equal(t, 5*time.Minute, cfg.OperationTimeout)
	})

	t.Run("missing DSN fails validation", func(t *testing.T) {
		t.Setenv("STAYOPS_DB_DSN", "")

		_, err := LoadWorkerConfig()
		assert.ErrorIs(t, err, ErrDSNRequired)
	})
}

func TestPaginationConfigValidate(t *testing.T) {
	t.Run("max below default rejected", func(t *testing.T) {
		cfg := PaginationConfig{DefaultPageSize: 50, MaxPageSize: 10}
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero default rejected", func(t *testing.T) {
		cfg := PaginationConfig{DefaultPageSize: 0, MaxPageSize: 100}
		assert.Error(t, cfg.Validate())
	})
}
