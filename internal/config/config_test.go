package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_YAMLWithDefaults(t *testing.T) {
	req := require.New(t)
	cfg, err := Load(writeConfig(t, `
server:
  port: 9000
auth:
  jwt_secret: "s3cret"
  access_ttl: 5m
channel_layer:
  backend: redis
`))
	req.NoError(err)
	req.Equal(9000, cfg.Server.Port)
	req.Equal("s3cret", cfg.Auth.JWTSecret)
	req.Equal(5*time.Minute, cfg.Auth.AccessTTL)
	req.Equal("redis", cfg.ChannelLayer.Backend)

	// defaults
	req.Equal(30*24*time.Hour, cfg.Auth.RefreshTTL)
	req.Equal(time.Hour, cfg.Auth.ResetTTL)
	req.Equal("schoolhub:chat:", cfg.ChannelLayer.Prefix)
	req.Equal(256, cfg.ChannelLayer.SendBuffer)
	req.Equal(3, cfg.Tasks.MaxRetries)
	req.Equal(30*time.Second, cfg.Tasks.RetryBaseDelay)
	req.Equal(10*time.Second, cfg.Tasks.ClearSessionsInterval)
	req.Equal("./files", cfg.Files.RootDir)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	req := require.New(t)
	t.Setenv("SCHOOLHUB_SERVER_PORT", "8081")
	t.Setenv("SCHOOLHUB_AUTH_JWT_SECRET", "from-env")
	t.Setenv("SCHOOLHUB_CHANNEL_LAYER_BACKEND", "memory")
	t.Setenv("SCHOOLHUB_EMAIL_DRY_RUN", "true")

	cfg, err := Load(writeConfig(t, `
server:
  port: 9000
auth:
  jwt_secret: "from-yaml"
channel_layer:
  backend: redis
email:
  dry_run: false
`))
	req.NoError(err)
	req.Equal(8081, cfg.Server.Port)
	req.Equal("from-env", cfg.Auth.JWTSecret)
	req.Equal("memory", cfg.ChannelLayer.Backend)
	req.True(cfg.Email.DryRun)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "server: [not, a, map"))
	require.Error(t, err)
}

func TestLoad_ZeroRetriesIsKept(t *testing.T) {
	req := require.New(t)
	cfg, err := Load(writeConfig(t, `
tasks:
  max_retries: 0
`))
	req.NoError(err)
	req.Equal(0, cfg.Tasks.MaxRetries)

	t.Setenv("SCHOOLHUB_TASKS_MAX_RETRIES", "5")
	cfg, err = Load(writeConfig(t, `
tasks:
  max_retries: 0
`))
	req.NoError(err)
	req.Equal(5, cfg.Tasks.MaxRetries)

	t.Setenv("SCHOOLHUB_TASKS_MAX_RETRIES", "-1")
	_, err = Load(writeConfig(t, "server:\n  port: 1\n"))
	req.Error(err)
}
