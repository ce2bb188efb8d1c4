package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hanzitools/hanzistats/internal/api"
	"github.com/hanzitools/hanzistats/internal/catalog"
	"github.com/hanzitools/hanzistats/internal/config"
	"github.com/hanzitools/hanzistats/internal/logger"
	"github.com/hanzitools/hanzistats/internal/repository/sqlite"
	"github.com/hanzitools/hanzistats/internal/services"
	"github.com/hanzitools/hanzistats/internal/stats"
	"github.com/hanzitools/hanzistats/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("Hanzi Deck Statistics Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("collection_path=%s", cfg.CollectionPath)
	log.Debug("hsk_data_path=%s", cfg.HSKDataPath)
	log.Debug("frequency_data_path=%s", cfg.FrequencyDataPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("aggregation_policy=%s", cfg.AggregationPolicy)
	log.Debug("report_queue_size=%d", cfg.ReportQueueSize)

	// Open the Anki collection (read-only)
	db, err := sqlite.Open(cfg.CollectionPath)
	if err != nil {
		log.Error("failed to open collection: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing collection")
		db.Close()
	}()

	// Load the reference catalog once; missing datasets degrade to empty
	// categories rather than failing startup.
	cat := catalog.Load(catalog.Paths{
		HSKChars:  cfg.HSKDataPath,
		Frequency: cfg.FrequencyDataPath,
	})
	if unavailable := cat.Unavailable(); len(unavailable) > 0 {
		log.Warn("%d categories have no reference data", len(unavailable))
	}

	// Initialize services
	source := sqlite.NewCollectionRepository(db)
	statsService := services.NewStatsService(source, cat, stats.ParsePolicy(cfg.AggregationPolicy))

	// A single worker serializes report aggregations.
	reportPool := worker.NewPool(1, cfg.ReportQueueSize)

	srv := api.NewServer(statsService, reportPool)

	ctx, cancel := context.WithCancel(context.Background())
	reportPool.Start(ctx)

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("stopping report pool")
	cancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	reportPool.Stop()

	log.Info("===========================================")
	log.Info("Hanzi Deck Statistics Server Stopped")
	log.Info("===========================================")
}
