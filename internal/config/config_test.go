package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_REVOCATION_BACKEND", "")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, RevocationBackendRedis, cfg.Auth.RevocationBackend)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshTokenTTL())
	assert.Equal(t, 500*time.Millisecond, cfg.Auth.StoreTimeout())
}

func TestLoadRejectsShortSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
}

func TestLoadRequiresSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET is required")
}

func TestLoadRejectsDevelopmentSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", devJWTSecret)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "development default")
}

func TestLoadAppliesDevelopmentSecretOnlyInDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, devJWTSecret, cfg.Auth.JWTSecret)

	t.Setenv("APP_ENV", "staging")
	t.Setenv("AUTH_JWT_SECRET", "a-staging-secret-that-is-long-enough-0123")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.App.Env)
}

func TestValidateRevocationBackend(t *testing.T) {
	cfg := &Config{
		App:  AppConfig{Env: "development"},
		Auth: AuthConfig{JWTSecret: "x", RevocationBackend: "etcd"},
	}
	require.Error(t, cfg.Validate())

	cfg.Auth.RevocationBackend = RevocationBackendPostgres
	require.Error(t, cfg.Validate(), "postgres backend needs a DSN")

	cfg.Postgres.DSN = "postgres://localhost/events"
	require.NoError(t, cfg.Validate())
}

func TestDurationFallbacks(t *testing.T) {
	var a AuthConfig
	assert.Equal(t, 15*time.Minute, a.LockoutWindow())
	assert.Equal(t, 10*time.Minute, a.RevocationPruneInterval())

	a.StoreTimeoutMillis = 250
	assert.Equal(t, 250*time.Millisecond, a.StoreTimeout())

	var app AppConfig
	assert.Zero(t, app.RequestTimeout())
	app.Host, app.Port = "127.0.0.1", "9000"
	assert.Equal(t, "127.0.0.1:9000", app.Addr())
}
