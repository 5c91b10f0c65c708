package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shahzod418/musicbox/pkg/musicbox"
	"github.com/shahzod418/musicbox/pkg/musicbox/metrics"
	"github.com/shahzod418/musicbox/pkg/musicbox/repo/memory"
	repopg "github.com/shahzod418/musicbox/pkg/musicbox/repo/postgres"
	"github.com/shahzod418/musicbox/pkg/musicbox/storage/cache"
	fsstorage "github.com/shahzod418/musicbox/pkg/musicbox/storage/fs"
	memorystorage "github.com/shahzod418/musicbox/pkg/musicbox/storage/memory"
	s3storage "github.com/shahzod418/musicbox/pkg/musicbox/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		DatabaseType:       "memory",
		StorageType:        "memory",
		CacheTTL:           10 * time.Minute,
		CacheMaxObjectSize: 1 << 20,
		EnableEventLogging: true,
	}
}

// ServerConfig represents configuration for the musicbox service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string // optional Postgres search_path
	AutoMigrate  bool

	// Storage configuration
	StorageType string // "memory", "fs", "s3"
	FSBaseDir   string
	S3          s3storage.Config

	// Optional Redis read cache in front of the store
	RedisURL           string
	CacheTTL           time.Duration
	CacheMaxObjectSize int64

	// Server options
	EnableMetrics      bool
	EnableEventLogging bool
	JWTSecret          string
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	switch c.StorageType {
	case "memory":
	case "fs":
		if c.FSBaseDir == "" {
			return errors.New("base directory is required for filesystem storage")
		}
	case "s3":
		if c.S3.Bucket == "" {
			return errors.New("bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}

	if c.RedisURL != "" && c.CacheTTL <= 0 {
		return errors.New("cache ttl must be positive")
	}

	return nil
}

// BuildService creates a Service from the configuration. The returned
// cleanup function releases pools and clients and is never nil.
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger) (musicbox.Service, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	repo, closeRepo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to build repository: %w", err)
	}
	closers = append(closers, closeRepo)

	store, closeStore, err := c.buildStore(logger)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("failed to build storage backend %s: %w", c.StorageType, err)
	}
	closers = append(closers, closeStore)

	options := []musicbox.Option{
		musicbox.WithRepository(repo),
		musicbox.WithBlobStore(store),
		musicbox.WithLogger(logger),
	}
	if c.EnableEventLogging {
		options = append(options, musicbox.WithEventSink(musicbox.NewLoggingEventSink(logger)))
	}

	svc, err := musicbox.New(options...)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return svc, cleanup, nil
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context) (musicbox.Repository, func(), error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), func() {}, nil
	case "postgres":
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		if schema := c.DBSchema; schema != "" {
			cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
				_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
				return err
			}
		}
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}

		repo := repopg.NewWithPool(pool)
		if c.AutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return repo, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// buildStore creates the BlobStore and its decorators
func (c *ServerConfig) buildStore(logger *slog.Logger) (musicbox.BlobStore, func(), error) {
	var store musicbox.BlobStore
	switch c.StorageType {
	case "memory":
		store = memorystorage.New()
	case "fs":
		fs, err := fsstorage.New(fsstorage.Config{BaseDir: c.FSBaseDir})
		if err != nil {
			return nil, nil, err
		}
		store = fs
	case "s3":
		s3, err := s3storage.New(c.S3)
		if err != nil {
			return nil, nil, err
		}
		store = s3
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}

	if c.EnableMetrics {
		store = metrics.InstrumentStore(store, c.StorageType)
	}

	if c.RedisURL == "" {
		return store, func() {}, nil
	}

	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	cached := cache.New(store, client, cache.Config{
		TTL:           c.CacheTTL,
		MaxObjectSize: c.CacheMaxObjectSize,
	}, logger)

	return cached, func() { _ = client.Close() }, nil
}
