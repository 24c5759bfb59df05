package config

import "time"

// ClientConfig is the root configuration for a player client.
type ClientConfig struct {
	Player    PlayerConfig    `yaml:"player"`
	Server    ServerConfig    `yaml:"server"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Transport TransportConfig `yaml:"transport"`
	Ping      PingConfig      `yaml:"ping"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// PlayerConfig identifies the connecting player.
type PlayerConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig locates the game server.
type ServerConfig struct {
	Origin string `yaml:"origin"` // Page origin, e.g. https://game.example.com
	Path   string `yaml:"path"`   // WebSocket path on the origin host
}

// ReconnectConfig holds the fixed reconnect policy.
type ReconnectConfig struct {
	Delay       *time.Duration `yaml:"delay"`        // nil = default; 0 retries immediately
	MaxAttempts *int           `yaml:"max_attempts"` // nil = default; 0 disables reconnection
}

// TransportConfig holds WebSocket handle settings.
type TransportConfig struct {
	HandshakeTimeout time.Duration  `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration  `yaml:"write_timeout"`
	PingInterval     *time.Duration `yaml:"ping_interval"` // nil = default; 0 disables keepalive pings
	PingTimeout      time.Duration  `yaml:"ping_timeout"`
}

// PingConfig controls the application-level ping the client sends while
// connected.
type PingConfig struct {
	Interval time.Duration `yaml:"interval"` // 0 disables
	Payload  string        `yaml:"payload"`
}

// MetricsConfig holds Prometheus and health endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}
