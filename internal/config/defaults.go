package config

import (
	"time"

	"github.com/rickgao/playersocket/internal/connection"
)

// Default values for optional configuration fields. Connection defaults come
// from the connection package.
const (
	DefaultPath                 = connection.DefaultPath
	DefaultReconnectDelay       = connection.DefaultReconnectDelay
	DefaultMaxReconnectAttempts = connection.DefaultMaxReconnectAttempts
	DefaultHandshakeTimeout     = connection.DefaultHandshakeTimeout
	DefaultWriteTimeout         = connection.DefaultWriteTimeout
	DefaultPingInterval         = connection.DefaultPingInterval
	DefaultPingTimeout          = connection.DefaultPingTimeout
	DefaultPingPayload          = `{"type":"ping"}`
	DefaultMetricsPort          = 9090
	DefaultMetricsPath          = "/metrics"
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "text"
)

// ApplyDefaults fills unset optional fields.
func (c *ClientConfig) ApplyDefaults() {
	c.applyDefaults()
}

func (c *ClientConfig) applyDefaults() {
	if c.Server.Path == "" {
		c.Server.Path = DefaultPath
	}

	// Reconnect defaults
	if c.Reconnect.Delay == nil {
		c.Reconnect.Delay = durationPtr(DefaultReconnectDelay)
	}
	if c.Reconnect.MaxAttempts == nil {
		n := DefaultMaxReconnectAttempts
		c.Reconnect.MaxAttempts = &n
	}

	// Transport defaults
	if c.Transport.HandshakeTimeout == 0 {
		c.Transport.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Transport.WriteTimeout == 0 {
		c.Transport.WriteTimeout = DefaultWriteTimeout
	}
	if c.Transport.PingInterval == nil {
		c.Transport.PingInterval = durationPtr(DefaultPingInterval)
	}
	if c.Transport.PingTimeout == 0 {
		c.Transport.PingTimeout = DefaultPingTimeout
	}

	if c.Ping.Interval > 0 && c.Ping.Payload == "" {
		c.Ping.Payload = DefaultPingPayload
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

func durationPtr(d time.Duration) *time.Duration {
	return &d
}
