package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rickgao/weevibin/internal/connection"
	"github.com/rickgao/weevibin/internal/ui"
)

// Config is the root configuration for weevibin.
type Config struct {
	Vibin      VibinConfig      `yaml:"vibin"`
	Connection ConnectionConfig `yaml:"connection"`
	UI         UIConfig         `yaml:"ui"`
	Log        LogConfig        `yaml:"log"`
}

// VibinConfig identifies the Vibin server.
type VibinConfig struct {
	URL string `yaml:"url"` // e.g. ws://vibin.local:8080/ws; empty until set by the UI
}

// ConnectionConfig holds connection and watchdog settings.
type ConnectionConfig struct {
	HandshakeTimeout    time.Duration `yaml:"handshake_timeout"`
	TickInterval        time.Duration `yaml:"tick_interval"`
	DefaultSilence      time.Duration `yaml:"default_silence"`
	SilenceFactor       float64       `yaml:"silence_factor"`
	MinKeepaliveSamples int           `yaml:"min_keepalive_samples"`
	KeepaliveWindow     int           `yaml:"keepalive_window"`
	WriteTimeout        time.Duration `yaml:"write_timeout"`
	RetryDelay          time.Duration `yaml:"retry_delay"`
}

// UIConfig holds presentation bridge settings.
type UIConfig struct {
	Listen       string        `yaml:"listen"`
	EventBuffer  int           `yaml:"event_buffer"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// ManagerConfig converts the configuration for the connection manager.
func (c *Config) ManagerConfig() connection.ManagerConfig {
	return connection.ManagerConfig{
		Endpoint:   c.Vibin.URL,
		RetryDelay: c.Connection.RetryDelay,
		Connection: connection.Config{
			HandshakeTimeout:    c.Connection.HandshakeTimeout,
			TickInterval:        c.Connection.TickInterval,
			DefaultSilence:      c.Connection.DefaultSilence,
			SilenceFactor:       c.Connection.SilenceFactor,
			MinKeepaliveSamples: c.Connection.MinKeepaliveSamples,
			KeepaliveWindow:     c.Connection.KeepaliveWindow,
			WriteTimeout:        c.Connection.WriteTimeout,
		},
	}
}

// BridgeConfig converts the configuration for the UI bridge.
func (c *Config) BridgeConfig() ui.Config {
	return ui.Config{
		EventBuffer:  c.UI.EventBuffer,
		WriteTimeout: c.UI.WriteTimeout,
	}
}

// SlogLevel parses the configured log level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger builds a logger writing to w in the configured format.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := l.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(l.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log.format must be text or json, got %q", l.Format)
	}
}
