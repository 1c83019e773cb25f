package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"order-engine/internal/api"
	"order-engine/internal/events"
	"order-engine/internal/order"
	"order-engine/internal/routing"
	"order-engine/internal/venue"
	"order-engine/pkg/config"
	"order-engine/pkg/db"
	"order-engine/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := log.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	database, err := db.New(cfg.DBPath)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer database.Close()
	if err := db.ApplyMigrations(database); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Event bus
	bus := events.NewBus()
	notifier := events.NewNotifier(bus, logger)

	// Venue simulation
	profiles := venue.DefaultProfiles()
	if cfg.VenueProfilesPath != "" {
		profiles, err = venue.LoadProfiles(cfg.VenueProfilesPath)
		if err != nil {
			logger.Fatal("Failed to load venue profiles", zap.Error(err))
		}
	}
	provider := venue.NewMockProvider(profiles, logger)

	aggregator, err := routing.NewAggregator(provider, []venue.Venue{venue.Raydium, venue.Meteora}, logger)
	if err != nil {
		logger.Fatal("Failed to build route aggregator", zap.Error(err))
	}

	// Execution pipeline
	queue := order.NewAdmissionQueue(cfg.MaxQueueSize, cfg.MaxConcurrent, logger)
	retry := order.RetryPolicy{MaxRetries: cfg.MaxRetries, InitialDelay: cfg.RetryInitialDelay}
	pipeline := order.NewPipeline(database, queue, aggregator, provider, notifier, retry, cfg.BuildLatency, logger)
	service := order.NewService(database, queue, notifier, logger)

	dispatcher := order.NewDispatcher(queue, pipeline, cfg.DispatchInterval, cfg.MaxConcurrent, logger)
	go dispatcher.Run(ctx)

	// API
	server := api.NewServer(service, bus, logger)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router,
	}
	go func() {
		logger.Info("Order engine listening", zap.String("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("API server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down")

	// Stop accepting new orders, cancel in-flight runs, then wait for the
	// workers and pending retry timers to unwind.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown did not complete cleanly", zap.Error(err))
	}
	cancel()
	dispatcher.WaitAll()
	pipeline.Wait()
	logger.Info("Shutdown complete")
}
