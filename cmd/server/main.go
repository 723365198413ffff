package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/game-leaderboard/internal/cache"
	"github.com/game-leaderboard/internal/config"
	"github.com/game-leaderboard/internal/handler"
	"github.com/game-leaderboard/internal/kafka"
	"github.com/game-leaderboard/internal/postgres"
	"github.com/game-leaderboard/internal/service"
	"github.com/game-leaderboard/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize PostgreSQL score log
	logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	scoreLog, err := postgres.NewScoreLog(&cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer scoreLog.Close()
	logger.Info("connected to PostgreSQL")

	// Run database migrations
	if err := scoreLog.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize ranking service
	ranking := service.NewRanking(scoreLog, &cfg.Leaderboard, logger)

	// Initialize optional Redis page cache
	if cfg.Cache.Enabled {
		logger.Info("connecting to Redis", "addr", cfg.Cache.Addr)
		pageCache, err := cache.NewPages(&cfg.Cache, logger)
		if err != nil {
			logger.Warn("failed to connect to Redis, continuing without page cache", "error", err)
		} else {
			defer pageCache.Close()
			ranking.SetCache(pageCache)
			logger.Info("connected to Redis")
		}
	}

	// Initialize cache warmer
	warmer := worker.NewWarmer(ranking, &cfg.Warmer, cfg.Leaderboard.DefaultLimit, logger)
	if cfg.Warmer.Enabled && cfg.Cache.Enabled {
		warmer.RunOnce(ctx)
		if err := warmer.Start(ctx); err != nil {
			logger.Error("failed to start cache warmer", "error", err)
			os.Exit(1)
		}
	}

	// Initialize Kafka consumer for high-volume score ingestion
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		var err error
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, ranking, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else {
			if err := kafkaConsumer.Start(); err != nil {
				logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
				kafkaConsumer = nil
			} else {
				logger.Info("Kafka consumer started successfully")
			}
		}
	}

	// Initialize HTTP handler
	httpHandler := handler.NewHandler(ranking, &cfg.Leaderboard, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop Kafka consumer
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	// Stop cache warmer
	if err := warmer.Stop(); err != nil {
		logger.Error("failed to stop cache warmer", "error", err)
	}

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
}
