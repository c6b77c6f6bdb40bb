package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "kimi-k2.5", cfg.ModelOverride)
	assert.Equal(t, "anton", cfg.DefaultDestination)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
http_port: 9000
request_timeout: 5s
database:
  driver: sqlite
  url: ":memory:"
model_override: kimi-k2.6
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("HTTP_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.HTTPPort)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":memory:", cfg.Database.URL)
	assert.Equal(t, "kimi-k2.6", cfg.ModelOverride)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched keys keep their defaults
	assert.Equal(t, 30*time.Second, cfg.Feed.PingInterval)
}

func TestLoadEnvDurations(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT_MS", "1500")
	t.Setenv("FEED_PING_INTERVAL_MS", "250")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Feed.PingInterval)
}

func TestLoadRejectsBadDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"INFO", zapcore.InfoLevel},
		{" debug ", zapcore.DebugLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}
