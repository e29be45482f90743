// Package backend assembles the storage, event publisher and caches selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"budgeteer/internal/amqp"
	"budgeteer/internal/cache"
	"budgeteer/internal/config"
	"budgeteer/internal/core"
	"budgeteer/internal/log"
	"budgeteer/internal/services"
	"budgeteer/internal/storage"
	"budgeteer/internal/storage/memory"
)

// BackendType names a storage implementation.
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (t BackendType) IsValid() bool {
	return slices.Contains(GetBackendTypes(), t)
}

func (t BackendType) String() string { return string(t) }

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend}
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	// AMQP is optional; without a URL month changes are not published.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	InsightsCacheSize int
	InsightsCacheTTL  time.Duration
	CleanupInterval   time.Duration
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	cfg := Config{
		Type:         BackendType(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}
	return cfg, cfg.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required for postgres backend")
		}
	}
	return nil
}

// Result bundles what the binaries need from a backend.
type Result struct {
	Store     storage.Store
	Publisher services.Publisher
	Insights  *cache.LRUCache[core.Insights]
	Caches    *cache.Manager

	closers []func() error
}

// Services returns the budget service wired to this backend.
func (r *Result) Services(opts ...services.Option) *services.BudgetService {
	base := []services.Option{services.WithInsightsCache(r.Insights)}
	if r.Publisher != nil {
		base = append(base, services.WithPublisher(r.Publisher))
	}
	return services.NewBudgetService(r.Store, append(base, opts...)...)
}

// Close stops the cache cleanup and releases connections in reverse order of creation.
func (r *Result) Close() error {
	r.Caches.Stop()
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Factory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend opens the configured store, migrating SQL databases, and the
// optional AMQP publisher. A publisher that cannot connect is logged and skipped.
func (f *Factory) CreateBackend(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		res.Store = repo
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case PostgresBackend:
		repo, err := storage.NewPostgresRepository(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL repository: %w", err)
		}
		res.Store = repo
		f.logger.Info("Initialized PostgreSQL backend")
	default:
		res.Store = memory.New()
		f.logger.Info("Initialized memory backend")
	}
	res.closers = append(res.closers, res.Store.Close)

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without export events", log.FieldError, err)
		} else {
			res.Publisher = client
			res.closers = append(res.closers, client.Close)
			f.logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	size, ttl, interval := cfg.InsightsCacheSize, cfg.InsightsCacheTTL, cfg.CleanupInterval
	if size <= 0 {
		size = 500
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	res.Insights = cache.NewLRUCache[core.Insights](size, ttl)
	res.Caches = cache.NewManager(f.logger)
	res.Caches.Register(res.Insights)
	res.Caches.StartCleanup(ctx, interval)

	return res, nil
}
