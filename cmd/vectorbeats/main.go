package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/whokrish/vectorbeats/internal/app"
	"github.com/whokrish/vectorbeats/internal/config"
	logpkg "github.com/whokrish/vectorbeats/internal/logger"
	"github.com/whokrish/vectorbeats/internal/metrics"
	chiTransport "github.com/whokrish/vectorbeats/internal/transport/chi"
	"github.com/whokrish/vectorbeats/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vectorbeats API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	store, err := app.OpenStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database",
		zap.String("backend", store.Backend().Kind),
		zap.String("address", store.Backend().Address),
	)

	metrics.RegisterSearchMetrics()

	svc, err := app.New(&cfg, store, logger)
	if err != nil {
		logger.Fatal("Failed to build services", zap.Error(err))
	}

	// Startup continues when some collections fail; /health reports them.
	if err := svc.Vectors.EnsureCollections(ctx); err != nil {
		logger.Error("Collection setup incomplete", zap.Error(err))
	}

	server := chiTransport.NewServer(svc.Vectors, svc.Health, logger).
		WithSearchDefaults(cfg.Search.DefaultLimit, cfg.Search.MaxLimit, cfg.Search.DefaultThreshold)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, logger, cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
