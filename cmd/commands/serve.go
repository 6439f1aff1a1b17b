package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/sherzodv/tim/internal/ability"
	"github.com/sherzodv/tim/internal/config"
	"github.com/sherzodv/tim/internal/gateway"
	"github.com/sherzodv/tim/internal/heartbeat"
	"github.com/sherzodv/tim/internal/identity"
	"github.com/sherzodv/tim/internal/message"
	"github.com/sherzodv/tim/internal/session"
	"github.com/sherzodv/tim/internal/space"
	"github.com/sherzodv/tim/internal/storage"
)

// NewServeCommand returns the serve subcommand.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the tim space gateway server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "bbolt data directory",
			},
		},
		Action: runServe,
	}
}

func runServe(_ context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Warn("config not found, using defaults", "path", configPath, "error", err)
		cfg = &config.Config{}
		cfg.Gateway.Host = "127.0.0.1"
		cfg.Gateway.Port = 18420
		cfg.Storage.DataDir = config.DefaultDataDir()
		cfg.Log.Level = "info"
		cfg.Space.SubscriberBufferSize = space.BufferSize
		cfg.Space.CleanupInterval = config.Duration(space.CleanupInterval)
		if v := os.Getenv("TIM_CODE_HOST"); v != "" {
			cfg.Gateway.Host = v
		}
		if port, err := strconv.Atoi(os.Getenv("TIM_CODE_PORT")); err == nil {
			cfg.Gateway.Port = port
		}
		if v := os.Getenv("TIM_DATA_DIR"); v != "" {
			cfg.Storage.DataDir = v
		}
		if v := os.Getenv("TIM_LOG_LEVEL"); v != "" {
			cfg.Log.Level = v
		}
	}

	logLevel := resolveLogLevel(cfg.Log.Level)
	if cmd.Bool("debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if cmd.IsSet("host") {
		cfg.Gateway.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Gateway.Port = cmd.Int("port")
	}
	if cmd.IsSet("data-dir") {
		cfg.Storage.DataDir = cmd.String("data-dir")
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	store, err := storage.Open(filepath.Join(cfg.Storage.DataDir, "tim.db"))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	reg, err := identity.New(store)
	if err != nil {
		return fmt.Errorf("init identity registry: %w", err)
	}
	sessions := session.New(store)

	sp, err := space.New(store)
	if err != nil {
		return fmt.Errorf("init space: %w", err)
	}

	stopCleanup := make(chan struct{})
	go sp.RunCleanup(stopCleanup)
	defer close(stopCleanup)

	messages, err := message.New(store, sp)
	if err != nil {
		return fmt.Errorf("init message service: %w", err)
	}
	abilities, err := ability.New(store, sp)
	if err != nil {
		return fmt.Errorf("init ability coordinator: %w", err)
	}

	facade := gateway.NewFacade(reg, sessions, sp, messages, abilities)
	server := gateway.NewServer(facade, cfg.Gateway.Host, cfg.Gateway.Port)

	hbWriter := heartbeat.NewWriter(filepath.Join(config.TimPath(), "heartbeat.json"), sp)
	hbWriter.Start()
	defer hbWriter.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func resolveLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
