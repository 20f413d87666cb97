package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/oos/auto-finder/internal/config"
	"github.com/oos/auto-finder/internal/publisher"
	"github.com/oos/auto-finder/internal/scheduler"
	"github.com/oos/auto-finder/internal/service"
	"github.com/oos/auto-finder/internal/source/feed"
	"github.com/oos/auto-finder/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize RabbitMQ publisher for deal events
	rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()

	// Initialize stores
	listingStore := postgres.NewListingStore(db)
	scrapeLogStore := postgres.NewScrapeLogStore(db)
	preferenceStore := postgres.NewPreferenceStore(db)
	txManager := postgres.NewTransactionManager(db)

	// Initialize the raw-listing feed source
	feedSource := feed.New(feed.Config{
		BaseURL:        cfg.Feed.BaseURL,
		SiteName:       cfg.Feed.SiteName,
		PageSize:       cfg.Feed.PageSize,
		Timeout:        cfg.Feed.Timeout,
		MaxAttempts:    cfg.Feed.Retry.MaxAttempts,
		InitialBackoff: cfg.Feed.Retry.InitialBackoff,
		MaxBackoff:     cfg.Feed.Retry.MaxBackoff,
	}, logger)

	// Create ingestion service
	ingestService := service.NewIngestService(
		feedSource,
		listingStore,
		scrapeLogStore,
		preferenceStore,
		txManager,
		rabbitMQ,
		logger,
		cfg.Ingest,
	)

	sched := scheduler.NewScheduler(ingestService, cfg.Ingest.Interval, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting listing ingestion service",
		"site", feedSource.Name(),
		"interval", cfg.Ingest.Interval,
		"max_pages", cfg.Ingest.MaxPagesPerRun,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
