package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds settings for the chat server runtime.
type Config struct {
	ListenAddr      string        `envconfig:"CAMPFIRE_LISTEN_ADDR" default:":5000"`
	LogLevel        string        `envconfig:"CAMPFIRE_LOG_LEVEL" default:"info"`
	ShutdownTimeout time.Duration `envconfig:"CAMPFIRE_SHUTDOWN_TIMEOUT" default:"10s"`

	Database  Database
	JWT       JWT
	WebSocket WebSocket
}

// Database captures storage configuration.
type Database struct {
	Path string `envconfig:"CAMPFIRE_DB_PATH" default:"campfire.db"`
}

// JWT defines token issuance parameters. The default expiration matches the
// seven day lifetime issued to HTTP clients.
type JWT struct {
	Secret     string        `envconfig:"CAMPFIRE_JWT_SECRET" default:"replace-me"`
	Issuer     string        `envconfig:"CAMPFIRE_JWT_ISSUER" default:"campfire"`
	Expiration time.Duration `envconfig:"CAMPFIRE_JWT_EXPIRATION" default:"168h"`
}

// WebSocket tunes the per-connection transport.
type WebSocket struct {
	MaxMessageBytes int64         `envconfig:"CAMPFIRE_WS_MAX_MESSAGE_BYTES" default:"65536"`
	SendBuffer      int           `envconfig:"CAMPFIRE_WS_SEND_BUFFER" default:"64"`
	WriteWait       time.Duration `envconfig:"CAMPFIRE_WS_WRITE_WAIT" default:"10s"`
	PongWait        time.Duration `envconfig:"CAMPFIRE_WS_PONG_WAIT" default:"60s"`
}

// PingPeriod derives the keepalive interval; it must fire before the peer's
// pong deadline expires.
func (w WebSocket) PingPeriod() time.Duration {
	return w.PongWait * 9 / 10
}

// Load builds the configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}

// SlogLevel maps the configured level name onto a slog level; unknown names
// fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
