package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/eocp2024/hungerrush-report/internal/amqp"
	"github.com/eocp2024/hungerrush-report/internal/config"
	apphttp "github.com/eocp2024/hungerrush-report/internal/http"
	"github.com/eocp2024/hungerrush-report/internal/log"
	"github.com/eocp2024/hungerrush-report/internal/services"
	"github.com/eocp2024/hungerrush-report/internal/source"
	"github.com/eocp2024/hungerrush-report/internal/source/file"
	"github.com/eocp2024/hungerrush-report/internal/source/hungerrush"
	"github.com/eocp2024/hungerrush-report/internal/source/memory"
	"github.com/eocp2024/hungerrush-report/internal/status"
	"github.com/eocp2024/hungerrush-report/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentApp})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	tracker := status.NewTracker()

	var fetcher source.OrderFetcher
	switch cfg.SourceBackend {
	case "hungerrush":
		client, err := hungerrush.NewClient(hungerrush.Config{
			BaseURL:      cfg.HungerRushBaseURL,
			Username:     cfg.HungerRushUsername,
			Password:     cfg.HungerRushPassword,
			PollInterval: cfg.PollInterval,
			OnStatus:     tracker.Set,
		})
		if err != nil {
			logger.Error("Failed to initialize HungerRush client", "error", err)
			os.Exit(1)
		}
		fetcher = client
		logger.Info("Initialized HungerRush backend", "base_url", cfg.HungerRushBaseURL)
	case "file":
		fetcher = file.New(cfg.SourceFile)
		logger.Info("Initialized file backend", "path", cfg.SourceFile)
	default:
		fetcher = memory.New(nil)
		logger.Info("Initialized memory backend")
	}

	reports := services.NewReportService(fetcher, tracker, services.Config{
		FetchTimeout: cfg.FetchTimeout,
		CacheSize:    cfg.CacheSize,
	})

	var history *storage.SQLiteRepository
	if cfg.SQLiteDBPath != "" {
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize report history", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		history = repo
		reports.WithHistory(repo)
	}

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		reports.WithPublisher(amqpClient)
		logger.Info("Report events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	srv := apphttp.NewServer(":"+cfg.Port, cfg.StoreID, reports, history)
	srv.ReadTimeout = 10 * time.Second
	// A live report run can take a while; the write timeout has to
	// outlast the fetch timeout or responses get cut off mid-run.
	srv.WriteTimeout = cfg.FetchTimeout + 30*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting report server", "port", cfg.Port, "backend", cfg.SourceBackend, "store_id", cfg.StoreID)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
