package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHandshakeTimeout    = 5 * time.Second
	DefaultTickInterval        = 2 * time.Second
	DefaultSilence             = 60 * time.Second
	DefaultSilenceFactor       = 1.25
	DefaultMinKeepaliveSamples = 3
	DefaultKeepaliveWindow     = 10
	DefaultWriteTimeout        = 1 * time.Second
	DefaultRetryDelay          = 5 * time.Second
	DefaultListen              = "127.0.0.1:7669"
	DefaultEventBuffer         = 256
	DefaultUIWriteTimeout      = 5 * time.Second
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
)

func (c *Config) applyDefaults() {
	// Connection defaults
	if c.Connection.HandshakeTimeout == 0 {
		c.Connection.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Connection.TickInterval == 0 {
		c.Connection.TickInterval = DefaultTickInterval
	}
	if c.Connection.DefaultSilence == 0 {
		c.Connection.DefaultSilence = DefaultSilence
	}
	if c.Connection.SilenceFactor == 0 {
		c.Connection.SilenceFactor = DefaultSilenceFactor
	}
	if c.Connection.MinKeepaliveSamples == 0 {
		c.Connection.MinKeepaliveSamples = DefaultMinKeepaliveSamples
	}
	if c.Connection.KeepaliveWindow == 0 {
		c.Connection.KeepaliveWindow = DefaultKeepaliveWindow
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}
	if c.Connection.RetryDelay == 0 {
		c.Connection.RetryDelay = DefaultRetryDelay
	}

	// UI defaults
	if c.UI.Listen == "" {
		c.UI.Listen = DefaultListen
	}
	if c.UI.EventBuffer == 0 {
		c.UI.EventBuffer = DefaultEventBuffer
	}
	if c.UI.WriteTimeout == 0 {
		c.UI.WriteTimeout = DefaultUIWriteTimeout
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
