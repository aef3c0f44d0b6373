package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, time.Duration(0), cfg.Retention.SweepInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.Retention.TerminalTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_MAX_OPEN_CONNS", "25")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("JWT_TOKEN_TTL", "1h")
	t.Setenv("RETENTION_SWEEP_INTERVAL", "15m")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.Retention.SweepInterval)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("MINIO_USE_SSL", "maybe")
	t.Setenv("JWT_TOKEN_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.False(t, cfg.MinIO.UseSSL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
}
