// Package config builds a configured pixly.Service from declarative
// settings.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pixly/pixly/pkg/pixly"
	"github.com/pixly/pixly/pkg/pixly/exif"
	"github.com/pixly/pixly/pkg/pixly/httpfetch"
	memoryrepo "github.com/pixly/pixly/pkg/pixly/repo/memory"
	postgresrepo "github.com/pixly/pixly/pkg/pixly/repo/postgres"
	memorystorage "github.com/pixly/pixly/pkg/pixly/storage/memory"
	s3storage "github.com/pixly/pixly/pkg/pixly/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// ServerConfig represents server configuration for the pixly service.
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseType string // "memory", "postgres"
	DatabaseURL  string

	// Storage configuration
	StorageType string // "memory", "s3"
	S3          s3storage.Config

	// Pipeline options
	FetchTimeout    time.Duration
	BulkConcurrency int
}

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
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
		Port:            "8080",
		Environment:     "development",
		DatabaseType:    "memory",
		StorageType:     "memory",
		FetchTimeout:    httpfetch.DefaultTimeout,
		BulkConcurrency: 4,
	}
}

// Validate validates the server configuration.
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

	if c.StorageType != "memory" && c.StorageType != "s3" {
		return errors.New("storage_type must be 'memory' or 's3'")
	}
	if c.StorageType == "s3" && c.S3.Bucket == "" {
		return errors.New("s3 bucket is required when using s3 storage")
	}

	return nil
}

// BuildService wires a Service from the configuration. The returned cleanup
// releases database resources and is safe to call on a nil error only.
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger) (pixly.Service, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	cleanup := func() {}

	var repo pixly.Repository
	switch c.DatabaseType {
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		pgRepo := postgresrepo.NewWithPool(pool)
		if err := pgRepo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		repo = pgRepo
		cleanup = pool.Close
	default:
		repo = memoryrepo.New()
	}

	var store pixly.BlobStore
	switch c.StorageType {
	case "s3":
		s3Store, err := s3storage.New(c.S3)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("building s3 storage: %w", err)
		}
		store = s3Store
	default:
		store = memorystorage.New()
	}

	svc, err := pixly.New(
		pixly.WithRepository(repo),
		pixly.WithBlobStore(store),
		pixly.WithFetcher(httpfetch.New(httpfetch.Config{Timeout: c.FetchTimeout})),
		pixly.WithNormalizer(exif.New(logger)),
		pixly.WithLogger(logger),
		pixly.WithBulkConcurrency(c.BulkConcurrency),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return svc, cleanup, nil
}
