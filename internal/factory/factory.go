package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/posrelay/internal/dependencies/clock"
	"github.com/mcoot/posrelay/internal/dependencies/ident"
	"github.com/mcoot/posrelay/internal/services/reconcile"
	"github.com/mcoot/posrelay/internal/storage"
	"github.com/mcoot/posrelay/internal/storage/memory"
	redisstorage "github.com/mcoot/posrelay/internal/storage/redis"
	"github.com/mcoot/posrelay/internal/transport/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Store

	// External dependencies
	Clock clock.Clock
	Ident ident.Generator

	// Components
	Reconciler *reconcile.Service
	Registry   *ws.Registry
	Relay      *ws.Relay
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Store
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	return newWithDependencies(store, clock.New(), ident.New(), logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Store, clk clock.Clock, gen ident.Generator, logger *slog.Logger) *App {
	reconciler := reconcile.New(store, logger)
	registry := ws.NewRegistry(logger)
	relay := ws.NewRelay(registry, store, reconciler, gen, clk, logger)

	return &App{
		Storage:    store,
		Clock:      clk,
		Ident:      gen,
		Reconciler: reconciler,
		Registry:   registry,
		Relay:      relay,
	}
}
