package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/posrelay/internal/api"
	"github.com/mcoot/posrelay/internal/factory"
	redisstorage "github.com/mcoot/posrelay/internal/storage/redis"
)

const defaultAddr = "0.0.0.0:8000"

type serverOptions struct {
	Addr        string
	StorageType string
	RedisURL    string
	LogLevel    string
}

// runServer wires the application and serves it until the context is
// cancelled or a shutdown signal arrives.
func runServer(ctx context.Context, opts serverOptions) error {
	level, err := parseLevel(opts.LogLevel)
	if err != nil {
		return err
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if _, _, err := net.SplitHostPort(opts.Addr); err != nil {
		return fmt.Errorf("invalid bind address %q: %w", opts.Addr, err)
	}

	cfg := factory.Config{
		Logger:      logger,
		StorageType: opts.StorageType,
	}
	if cfg.StorageType == factory.StorageTypeRedis {
		if opts.RedisURL == "" {
			return errors.New("--redis-url required when --storage=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = opts.RedisURL
		cfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(cfg)
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger: logger,
		Relay:  app.Relay,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Addr = opts.Addr
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			logger.Info("shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("relay started",
		slog.String("addr", opts.Addr),
		slog.String("storage", cfg.StorageType))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("relay stopped")
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", s)
	}
}
