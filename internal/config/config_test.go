package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := Load()
	req.NoError(err)
	req.Equal(":5000", cfg.ListenAddr)
	req.Equal("info", cfg.LogLevel)
	req.Equal(10*time.Second, cfg.ShutdownTimeout)
	req.Equal("campfire.db", cfg.Database.Path)
	req.Equal("campfire", cfg.JWT.Issuer)
	req.Equal(168*time.Hour, cfg.JWT.Expiration)
	req.Equal(int64(65536), cfg.WebSocket.MaxMessageBytes)
	req.Equal(64, cfg.WebSocket.SendBuffer)
}

func TestLoad_EnvOverrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("CAMPFIRE_LISTEN_ADDR", ":9000")
	t.Setenv("CAMPFIRE_DB_PATH", "/tmp/other.db")
	t.Setenv("CAMPFIRE_JWT_EXPIRATION", "24h")
	t.Setenv("CAMPFIRE_WS_SEND_BUFFER", "16")

	cfg, err := Load()
	req.NoError(err)
	req.Equal(":9000", cfg.ListenAddr)
	req.Equal("/tmp/other.db", cfg.Database.Path)
	req.Equal(24*time.Hour, cfg.JWT.Expiration)
	req.Equal(16, cfg.WebSocket.SendBuffer)
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for name, want := range cases {
		cfg := Config{LogLevel: name}
		require.Equal(t, want, cfg.SlogLevel(), "level %q", name)
	}
}

func TestPingPeriod(t *testing.T) {
	ws := WebSocket{PongWait: 60 * time.Second}
	require.Equal(t, 54*time.Second, ws.PingPeriod())
	require.Less(t, ws.PingPeriod(), ws.PongWait)
}
