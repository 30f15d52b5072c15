package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pulseops/behavior-telemetry/internal/capture"
	"github.com/pulseops/behavior-telemetry/internal/config"
	"github.com/pulseops/behavior-telemetry/internal/logger"
	"github.com/pulseops/behavior-telemetry/internal/server"
	"github.com/pulseops/behavior-telemetry/internal/service"
	"github.com/pulseops/behavior-telemetry/internal/storage"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/local.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting behavior telemetry agent",
		zap.String("env", cfg.Env),
		zap.String("config_path", *configPath),
	)

	store, err := storage.NewSQLiteStore(cfg.StoragePath, log.Logger)
	if err != nil {
		log.Fatal("Failed to open telemetry store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close telemetry store", zap.Error(err))
		}
	}()

	capt := capture.New(store, log.Logger,
		capture.WithBatchSize(cfg.Capture.BatchSize),
		capture.WithFlushInterval(time.Duration(cfg.Capture.FlushInterval)*time.Second),
		capture.WithLogCaps(cfg.Capture.MaxStoredEvents, cfg.Capture.MaxStoredSessions),
	)

	reports := service.NewReportService(
		capt,
		time.Duration(cfg.Report.Interval)*time.Second,
		log.Logger,
	)
	reports.Start()

	var httpServer *http.Server
	if cfg.Server.Enabled {
		ingest := server.NewIngestServer(capt, reports, log.Logger)
		addr := fmt.Sprintf("localhost:%d", cfg.Server.Port)
		httpServer = &http.Server{
			Addr:         addr,
			Handler:      ingest,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			log.Info("Starting ingest server", zap.String("address", addr))
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("Ingest server error", zap.Error(err))
			}
		}()
	} else {
		log.Info("Ingest server disabled in configuration")
	}

	log.Info("Behavior telemetry agent started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	if httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Warn("Ingest server shutdown error", zap.Error(err))
		} else {
			log.Info("Ingest server stopped")
		}
	}

	// Ends any active session and flushes the buffer before the final
	// analysis pass inside reports.Stop
	done := make(chan struct{})
	go func() {
		capt.Close()
		reports.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("Telemetry pipeline stopped")
	case <-time.After(3 * time.Second):
		log.Warn("Shutdown timeout reached, forcing exit")
		os.Exit(1)
	}

	log.Info("Behavior telemetry agent stopped")
}
