package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"bookden/database"
	"bookden/internal/catalog"
	"bookden/internal/config"
	"bookden/internal/httpapi"
	"bookden/internal/httpapi/middleware"
)

func main() {
	// Load and validate config; a missing JWT secret or database URL is fatal.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)

	gdb, err := database.OpenGorm(cfg, logger)
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}
	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	// Redis is optional; without it the login throttle is per-process only.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, falling back to in-process throttle", "error", err)
			redisClient = nil
		}
		cancel()
	}
	throttle := middleware.NewLoginThrottle(redisClient, cfg.LoginRatePerMin, cfg.LoginRateBurst)

	if cfg.GoogleBooksAPIKey == "" {
		logger.Warn("GOOGLE_BOOKS_API_KEY not set, search runs unauthenticated with lower quotas")
	}
	catalogClient := catalog.NewClient(cfg.GoogleBooksAPIURL, cfg.GoogleBooksAPIKey, cfg.CatalogTimeout)

	r := httpapi.NewRouter(cfg, httpapi.Deps{
		DB:       gdb,
		Catalog:  catalogClient,
		Throttle: throttle,
		Logger:   logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("api server starting", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
