// wsclient connects a player to the game server and logs every connection
// event until interrupted.
//
// Usage: go run ./cmd/wsclient --config configs/wsclient.example.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/playersocket/internal/admin"
	"github.com/rickgao/playersocket/internal/config"
	"github.com/rickgao/playersocket/internal/connection"
	"github.com/rickgao/playersocket/internal/telemetry"
	"github.com/rickgao/playersocket/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/wsclient.example.yaml", "path to config file")
	playerID := flag.String("player", "", "override player.id from the config")
	flag.Parse()

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *playerID != "" {
		cfg.Player.ID = *playerID
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := telemetry.NewLogger(cfg.Logging, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	logger.Info("starting wsclient",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"player_id", cfg.Player.ID,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("wsclient exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("wsclient stopped")
}

func run(cfg *config.ClientConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(registry, map[string]string{
		"player_id": cfg.Player.ID,
		"version":   version.Version,
	})

	opts := []connection.Option{
		connection.WithLogger(logger),
		connection.WithPath(cfg.Server.Path),
		connection.WithReconnectDelay(*cfg.Reconnect.Delay),
		connection.WithMaxReconnectAttempts(*cfg.Reconnect.MaxAttempts),
		connection.WithClientConfig(connection.ClientConfig{
			HandshakeTimeout: cfg.Transport.HandshakeTimeout,
			WriteTimeout:     cfg.Transport.WriteTimeout,
			PingInterval:     *cfg.Transport.PingInterval,
			PingTimeout:      cfg.Transport.PingTimeout,
			UserAgent:        version.UserAgent(),
		}),
		connection.WithMetrics(metrics),
	}
	opts = append(opts, eventLoggers(logger)...)

	mgr, err := connection.New(cfg.Server.Origin, cfg.Player.ID, opts...)
	if err != nil {
		return fmt.Errorf("create connection manager: %w", err)
	}

	logger.Info("connecting", "url", mgr.URL(), "manager_id", mgr.ID())

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		srv := admin.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, mgr, registry, logger)
		g.Go(func() error {
			return srv.Run(ctx)
		})
	}

	if cfg.Ping.Interval > 0 {
		g.Go(func() error {
			pingLoop(ctx, mgr, cfg.Ping.Interval, []byte(cfg.Ping.Payload))
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := mgr.Close(); err != nil {
			logger.Debug("close returned error", "error", err)
		}

		select {
		case <-mgr.Done():
		case <-time.After(5 * time.Second):
			return errors.New("timed out waiting for connection manager to stop")
		}
		return nil
	})

	return g.Wait()
}

// eventLoggers registers a logging listener for every event category.
func eventLoggers(logger *slog.Logger) []connection.Option {
	return []connection.Option{
		connection.WithListener(connection.EventOpen, connection.NewListener(func(any) {
			logger.Info("connected")
		})),
		connection.WithListener(connection.EventClose, connection.NewListener(func(any) {
			logger.Info("disconnected")
		})),
		connection.WithListener(connection.EventError, connection.NewListener(func(any) {
			logger.Warn("connection error")
		})),
		connection.WithListener(connection.EventMessage, connection.NewListener(func(data any) {
			logger.Info("message received", "data", data)
		})),
	}
}

// pingLoop sends payload on every tick while the connection is open.
func pingLoop(ctx context.Context, mgr *connection.Manager, interval time.Duration, payload []byte) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if mgr.IsConnected() {
				mgr.Send(payload)
			}
		}
	}
}
