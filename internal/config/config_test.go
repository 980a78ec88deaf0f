package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
api:
  base_url: "http://scores.local/api"
  timeout: 3
realtime:
  transport: nats
  socket_url: "ws://scores.local/ws"
  nats_url: "nats://bus:4222"
  subject: "arena.events"
redis:
  addr: "redis:6379"
  password: "secret"
  db: 2
game:
  duration: 600
ui:
  refresh_rate: 30
  sound: true
log:
  level: debug
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)

	assert.Equal(t, "http://scores.local/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.TimeoutDuration())
	assert.Equal(t, TransportNATS, cfg.Realtime.Transport)
	assert.Equal(t, "ws://scores.local/ws", cfg.Realtime.SocketURL)
	assert.Equal(t, "nats://bus:4222", cfg.Realtime.NATSURL)
	assert.Equal(t, "arena.events", cfg.Realtime.Subject)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "tagracer:snapshot", cfg.Redis.Key)
	assert.Equal(t, 10*time.Minute, cfg.Game.DurationValue())
	assert.Equal(t, time.Second/30, cfg.UI.TickInterval())
	assert.True(t, cfg.UI.Sound)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "invalid: yaml: :::"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_UnknownTransport(t *testing.T) {
	cfg, err := Load(writeConfig(t, "realtime:\n  transport: carrier-pigeon\n"))
	assert.ErrorContains(t, err, "carrier-pigeon")
	assert.Nil(t, cfg)
}

func TestLoad_NoFileAppliesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "http://localhost:5000/api", cfg.API.BaseURL)
	assert.Equal(t, "ws://localhost:5000/ws", cfg.Realtime.SocketURL)
	assert.Equal(t, TransportWebSocket, cfg.Realtime.Transport)
	assert.Equal(t, 5*time.Minute, cfg.Game.DurationValue())
	assert.Equal(t, 60, cfg.UI.RefreshRate)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://env/api")
	t.Setenv(EnvSocketURL, "ws://env/ws")
	t.Setenv(EnvRedisAddr, "env-redis:6379")
	t.Setenv(EnvGameDuration, "90")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(writeConfig(t, "api:\n  base_url: http://file/api\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://env/api", cfg.API.BaseURL)
	assert.Equal(t, "ws://env/ws", cfg.Realtime.SocketURL)
	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 90*time.Second, cfg.Game.DurationValue())
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_InvalidIntEnvIgnored(t *testing.T) {
	t.Setenv(EnvGameDuration, "five minutes")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Game.Duration)
}
