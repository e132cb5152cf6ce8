package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/pixly/pixly/pkg/pixly/api"
	"github.com/pixly/pixly/pkg/pixly/config"
	s3storage "github.com/pixly/pixly/pkg/pixly/storage/s3"
)

// envConfig maps process environment variables onto server settings.
type envConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	DatabaseType string `env:"DATABASE_TYPE" env-default:"memory"`
	DatabaseURL  string `env:"DATABASE_URL" env-default:""`

	StorageType       string `env:"STORAGE_TYPE" env-default:"memory"`
	S3Region          string `env:"AWS_REGION" env-default:"us-east-1"`
	S3Bucket          string `env:"S3_BUCKET" env-default:""`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	S3Endpoint        string `env:"S3_ENDPOINT" env-default:""`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	S3PublicBaseURL   string `env:"S3_PUBLIC_BASE_URL" env-default:""`

	FetchTimeoutSeconds int `env:"FETCH_TIMEOUT_SECONDS" env-default:"30"`
	BulkConcurrency     int `env:"BULK_CONCURRENCY" env-default:"4"`
}

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	var env envConfig
	if err := cleanenv.ReadEnv(&env); err != nil {
		slog.Error("failed to read environment", "error", err)
		os.Exit(1)
	}

	logger := newLogger(env.Environment)
	slog.SetDefault(logger)

	cfg, err := config.Load(func(c *config.ServerConfig) error {
		c.Port = env.Port
		c.Environment = env.Environment
		c.DatabaseType = env.DatabaseType
		c.DatabaseURL = env.DatabaseURL
		c.StorageType = env.StorageType
		c.S3 = s3storage.Config{
			Region:          env.S3Region,
			Bucket:          env.S3Bucket,
			AccessKeyID:     env.S3AccessKeyID,
			SecretAccessKey: env.S3SecretAccessKey,
			Endpoint:        env.S3Endpoint,
			UsePathStyle:    env.S3UsePathStyle,
			PublicBaseURL:   env.S3PublicBaseURL,
		}
		c.FetchTimeout = time.Duration(env.FetchTimeoutSeconds) * time.Second
		c.BulkConcurrency = env.BulkConcurrency
		return nil
	})
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	svc, cleanup, err := cfg.BuildService(ctx, logger)
	if err != nil {
		logger.Error("failed to build service", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/api/photos", api.NewPhotoHandler(svc, logger).Routes())

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	go func() {
		logger.Info("pixly server starting",
			"port", cfg.Port, "env", cfg.Environment,
			"database", cfg.DatabaseType, "storage", cfg.StorageType)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exiting")
}

func newLogger(environment string) *slog.Logger {
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
