package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *ClientConfig) Validate() error {
	if c.Player.ID == "" {
		return errors.New("player.id is required")
	}

	if err := c.Server.validate(); err != nil {
		return err
	}

	if c.Reconnect.Delay != nil && *c.Reconnect.Delay < 0 {
		return fmt.Errorf("reconnect.delay must be >= 0, got %v", *c.Reconnect.Delay)
	}
	if c.Reconnect.MaxAttempts != nil && *c.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("reconnect.max_attempts must be >= 0, got %d", *c.Reconnect.MaxAttempts)
	}

	if c.Transport.HandshakeTimeout < 0 {
		return errors.New("transport.handshake_timeout must be >= 0")
	}
	if c.Transport.WriteTimeout < 0 {
		return errors.New("transport.write_timeout must be >= 0")
	}
	if iv := c.Transport.PingInterval; iv != nil {
		if *iv < 0 {
			return errors.New("transport.ping_interval must be >= 0")
		}
		if *iv > 0 && c.Transport.PingTimeout > 0 && c.Transport.PingTimeout < *iv {
			return fmt.Errorf("transport.ping_timeout (%v) cannot be shorter than ping_interval (%v)",
				c.Transport.PingTimeout, *iv)
		}
	}

	if c.Ping.Interval < 0 {
		return errors.New("ping.interval must be >= 0")
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

func (s *ServerConfig) validate() error {
	if s.Origin == "" {
		return errors.New("server.origin is required")
	}
	u, err := url.Parse(s.Origin)
	if err != nil {
		return fmt.Errorf("server.origin: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("server.origin scheme must be http, https, ws or wss, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("server.origin %q has no host", s.Origin)
	}
	return nil
}
