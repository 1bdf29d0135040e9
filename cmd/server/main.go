// Package main is the entry point for the product API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/product-api/internal/auth"
	"github.com/vyrodovalexey/product-api/internal/config"
	"github.com/vyrodovalexey/product-api/internal/server"
	"github.com/vyrodovalexey/product-api/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use a basic logger for startup errors
		basicLogger, _ := zap.NewProduction()
		basicLogger.Fatal("failed to load configuration", zap.Error(err))
	}

	// Initialize logger
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		basicLogger, _ := zap.NewProduction()
		basicLogger.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("configuration loaded",
		zap.Int("server_port", cfg.ServerPort),
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("shutdown_timeout", cfg.ShutdownTimeout),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
		zap.String("store_driver", cfg.StoreDriver),
		zap.String("auth_scope", cfg.AuthScope),
	)

	// Create authenticator based on config
	authenticator, err := createAuthenticator(cfg, logger)
	if err != nil {
		logger.Error("failed to create authenticator", zap.Error(err))
		return 1
	}

	// Connect the product store
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), cfg.QueryTimeout)
	productStore, err := createStore(connectCtx, cfg, logger)
	cancelConnect()
	if err != nil {
		logger.Error("failed to create store", zap.Error(err))
		return 1
	}
	defer closeStore(productStore, cfg.ShutdownTimeout, logger)

	// Create and start server
	srv := server.New(cfg, logger, productStore, authenticator)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	// Wait for shutdown signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", zap.Error(err))
		return 1
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		// Create shutdown context with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		// Graceful shutdown
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			return 1
		}
	}

	logger.Info("server stopped")
	return 0
}

// closeStore releases the store connection within timeout.
func closeStore(s store.Store, timeout time.Duration, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Close(ctx); err != nil {
		logger.Error("failed to close store", zap.Error(err))
		return
	}
	logger.Info("store closed")
}

// initLogger initializes a zap logger with the specified log level.
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return zapConfig.Build()
}

// createAuthenticator creates the API key authenticator guarding the
// product routes.
func createAuthenticator(
	cfg *config.Config,
	logger *zap.Logger,
) (auth.Authenticator, error) {
	authenticator, err := auth.NewAPIKeyAuthenticator(cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("creating API key authenticator: %w", err)
	}

	logger.Info("authentication mode: API key",
		zap.String("header", auth.APIKeyHeader),
		zap.String("scope", cfg.AuthScope),
	)

	return authenticator, nil
}

// createStore opens the product store selected by the config.
func createStore(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Info("store driver: memory")
		return store.NewMemoryStore(), nil
	case config.StoreDriverMongo:
		logger.Info("store driver: mongo",
			zap.String("database", cfg.MongoDatabase),
			zap.String("collection", cfg.MongoCollection),
		)
		mongoStore, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:          cfg.MongoURI,
			Database:     cfg.MongoDatabase,
			Collection:   cfg.MongoCollection,
			QueryTimeout: cfg.QueryTimeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to mongo: %w", err)
		}
		return mongoStore, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.StoreDriver)
	}
}
