package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr())
	assert.Equal(t, AuthModeDev, cfg.Auth.Mode)
	assert.Equal(t, 5*time.Second, cfg.Redis.LockTTL)
	assert.Empty(t, cfg.DB.DSN)
}

func TestLoad_FileThenEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: "9090"
  read_timeout: 2s
log:
  level: debug
auth:
  mode: jwt
  jwt_secret: from-file
rate_limit:
  rps: 5
  burst: 10
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, 2*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, AuthModeJWT, cfg.Auth.Mode)
	assert.Equal(t, "from-env", cfg.Auth.Secret)
	assert.Equal(t, 5.0, cfg.RateLimit.RPS)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Auth.Mode = AuthModeJWT
	assert.Error(t, cfg.Validate())

	cfg.Auth.Mode = AuthModeRemote
	cfg.Auth.RemoteURL = "http://iam"
	assert.Error(t, cfg.Validate())
	cfg.Auth.RemoteAPIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Auth.Mode = "ldap"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.RateLimit = RateLimitConfig{RPS: 1, Burst: 0}
	assert.Error(t, cfg.Validate())
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores it when the test finishes.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
