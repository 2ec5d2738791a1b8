package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/eocp2024/hungerrush-report/internal/amqp"
	"github.com/eocp2024/hungerrush-report/internal/config"
	"github.com/eocp2024/hungerrush-report/internal/export/google"
	"github.com/eocp2024/hungerrush-report/internal/log"
	"github.com/eocp2024/hungerrush-report/internal/storage"
	"github.com/eocp2024/hungerrush-report/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting report-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required: the worker consumes report events")
		os.Exit(1)
	}

	history, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize report history", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer history.Close()

	var exporter worker.SummaryExporter
	if cfg.ExportSpreadsheetID != "" {
		exp, err := google.NewExporter(context.Background(), cfg.ExportSpreadsheetID, cfg.ExportSheetName)
		if err != nil {
			logger.Error("Failed to initialize sheet exporter", "error", err)
			os.Exit(1)
		}
		exporter = exp
		logger.Info("Sheet export enabled", "spreadsheet_id", cfg.ExportSpreadsheetID, "sheet", cfg.ExportSheetName)
	} else {
		logger.Info("Sheet export disabled - no EXPORT_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := worker.NewReportWorker(history, exporter)

	go func() {
		handler := func(msg *amqp.ReportCompletedMessage) error {
			return w.HandleReportCompleted(ctx, msg)
		}
		if err := amqpClient.ConsumeReportCompleted(ctx, handler); err != nil {
			if err != context.Canceled {
				logger.Error("Event consumption failed", "error", err)
			}
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()

	// Give the in-flight handler a moment to finish before the deferred
	// closes tear the connection down.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
