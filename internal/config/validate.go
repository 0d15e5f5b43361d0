package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/rickgao/weevibin/internal/connection"
)

// Validate checks that values are valid. The Vibin URL is optional; when set
// it must be a usable endpoint.
func (c *Config) Validate() error {
	if c.Vibin.URL != "" {
		if _, err := connection.ParseEndpoint(c.Vibin.URL); err != nil {
			return fmt.Errorf("vibin.url: %w", err)
		}
	}

	if err := c.Connection.validate("connection"); err != nil {
		return err
	}

	if _, _, err := net.SplitHostPort(c.UI.Listen); err != nil {
		return fmt.Errorf("ui.listen: %w", err)
	}
	if c.UI.EventBuffer < 1 {
		return errors.New("ui.event_buffer must be >= 1")
	}
	if c.UI.WriteTimeout <= 0 {
		return errors.New("ui.write_timeout must be > 0")
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

func (cc *ConnectionConfig) validate(prefix string) error {
	if cc.HandshakeTimeout <= 0 {
		return fmt.Errorf("%s.handshake_timeout must be > 0", prefix)
	}
	if cc.TickInterval <= 0 {
		return fmt.Errorf("%s.tick_interval must be > 0", prefix)
	}
	if cc.DefaultSilence <= 0 {
		return fmt.Errorf("%s.default_silence must be > 0", prefix)
	}
	if cc.SilenceFactor < 1 {
		return fmt.Errorf("%s.silence_factor must be >= 1, got %g", prefix, cc.SilenceFactor)
	}
	if cc.MinKeepaliveSamples < 1 {
		return fmt.Errorf("%s.min_keepalive_samples must be >= 1", prefix)
	}
	if cc.KeepaliveWindow < 1 {
		return fmt.Errorf("%s.keepalive_window must be >= 1", prefix)
	}
	if cc.MinKeepaliveSamples > cc.KeepaliveWindow {
		return fmt.Errorf("%s.min_keepalive_samples (%d) cannot exceed keepalive_window (%d)",
			prefix, cc.MinKeepaliveSamples, cc.KeepaliveWindow)
	}
	if cc.WriteTimeout <= 0 {
		return fmt.Errorf("%s.write_timeout must be > 0", prefix)
	}
	if cc.RetryDelay < 0 {
		return fmt.Errorf("%s.retry_delay must be >= 0", prefix)
	}
	return nil
}
