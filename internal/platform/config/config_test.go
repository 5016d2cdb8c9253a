package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := FromEnv()
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, "pgx", cfg.Database.Driver)
		assert.Empty(t, cfg.Database.URL)
		assert.True(t, cfg.Database.Migrate)
		assert.Equal(t, time.Hour, cfg.Redis.CodeCacheTTL)
		assert.Zero(t, cfg.Audit.Buffer)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("ARHO_ADDR", ":9090")
		t.Setenv("ARHO_DB_DRIVER", "sqlite")
		t.Setenv("ARHO_DB_MIGRATE", "false")
		t.Setenv("ARHO_AUDIT_BUFFER", "64")
		t.Setenv("ARHO_CODE_CACHE_TTL", "5m")

		cfg := FromEnv()
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.False(t, cfg.Database.Migrate)
		assert.Equal(t, 64, cfg.Audit.Buffer)
		assert.Equal(t, 5*time.Minute, cfg.Redis.CodeCacheTTL)
	})

	t.Run("unparsable values fall back", func(t *testing.T) {
		t.Setenv("ARHO_AUDIT_BUFFER", "many")
		t.Setenv("ARHO_SHUTDOWN_TIMEOUT", "soon")

		cfg := FromEnv()
		assert.Zero(t, cfg.Audit.Buffer)
		assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	})
}
