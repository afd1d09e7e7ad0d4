package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/air4space/ops-console/internal/adapter/http"
	kafkaadapter "github.com/air4space/ops-console/internal/adapter/kafka"
	"github.com/air4space/ops-console/internal/adapter/openweather"
	"github.com/air4space/ops-console/internal/adapter/opstatus"
	"github.com/air4space/ops-console/internal/adapter/spaceweather"
	"github.com/air4space/ops-console/internal/config"
	"github.com/air4space/ops-console/internal/domain"
	"github.com/air4space/ops-console/internal/observability"
	"github.com/air4space/ops-console/internal/service"
	"github.com/air4space/ops-console/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	kv, err := store.OpenSQLite(cfg.StateDBPath)
	if err != nil {
		logger.Error("failed to open state store", "path", cfg.StateDBPath, "error", err)
		os.Exit(1)
	}
	state := store.NewStateStore(kv, logger, metrics)

	// The calendar status document is static reference data; a missing or
	// bad file leaves the calendar unannotated but the console running.
	statuses, err := opstatus.LoadFile(cfg.OpStatusPath)
	if err != nil {
		logger.Warn("operation status unavailable", "path", cfg.OpStatusPath, "error", err)
		statuses = domain.StatusMap{}
	}

	weather := openweather.NewClient(cfg, logger, metrics)
	forecast := spaceweather.NewFetcher(cfg, logger, metrics)

	// Feedback export is feature-flagged via KAFKA_BROKERS / EXPORT_ENABLED.
	var exporter service.Exporter
	var exportWriter *kafkaadapter.Writer
	if cfg.ExportEnabled {
		exportWriter = kafkaadapter.NewWriter(cfg, logger)
		exporter = exportWriter
		metrics.ExportEnabled.Set(1)
		logger.Info("feedback export enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaExportTopic)
	} else {
		logger.Info("feedback export disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	console := service.New(ctx, state, weather, forecast, exporter, statuses, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, console, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if exportWriter != nil {
		if err := exportWriter.Close(); err != nil {
			logger.Error("export writer close error", "error", err)
		}
	}
	if err := kv.Close(); err != nil {
		logger.Error("state store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
