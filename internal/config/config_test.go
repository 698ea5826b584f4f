package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peanechestate/estateauth"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, estateauth.DefaultConfig(), cfg.Auth)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ESTATEAUTH_REDIS_ADDR", "redis:6379")
	t.Setenv("ESTATEAUTH_SESSION_TTL", "2h")
	t.Setenv("ESTATEAUTH_VERIFIER_LATENCY", "0s")
	t.Setenv("ESTATEAUTH_VERIFIER_MODE", "ARGON2")
	t.Setenv("ESTATEAUTH_AUDIT_ENABLED", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Auth.Session.TTL)
	assert.Zero(t, cfg.Auth.Verifier.Latency)
	assert.Equal(t, estateauth.VerifierArgon2, cfg.Auth.Verifier.Mode)
	assert.True(t, cfg.Auth.Audit.Enabled)
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ESTATEAUTH_SERVER_ADDR=:9999\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ESTATEAUTH_SERVER_ADDR") })

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "estateauth.yaml")
	yaml := `
server:
  addr: ":7000"
session:
  redis_prefix: "test"
  key: "who"
gate:
  landing_path: "/welcome"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "test:who", cfg.Auth.SessionKey())
	assert.Equal(t, "/welcome", cfg.Auth.Gate.LandingPath)
}

func TestLoadRejectsInvalidAuthConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ESTATEAUTH_GATE_LANDING_PATH", "nowhere")

	_, err := LoadFromEnv()
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
