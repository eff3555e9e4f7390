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

	"prayer_notifier/internal/config"
	"prayer_notifier/internal/notify/ntfy"
	"prayer_notifier/internal/publisher"
	"prayer_notifier/internal/scheduler"
	"prayer_notifier/internal/service"
	"prayer_notifier/internal/source/muai"
	"prayer_notifier/internal/storage/postgres"
	"prayer_notifier/internal/timeutil"
	"prayer_notifier/internal/vision"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	forceRefresh := flag.Bool("force-refresh", false, "re-extract the calendar on startup even if unchanged")
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

	clock, err := timeutil.NewWallClock(cfg.Notify.Timezone)
	if err != nil {
		logger.Error("failed to load timezone", "error", err)
		os.Exit(1)
	}

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

	// Initialize stores
	scheduleStore := postgres.NewScheduleStore(db)
	stateStore := postgres.NewCalendarStateStore(db)
	sentLog := postgres.NewSentLogStore(db)
	txManager := postgres.NewTransactionManager(db)

	// Initialize calendar source
	calendarSource := muai.New(muai.Config{
		SiteURL:        cfg.Source.SiteURL,
		LinkText:       cfg.Source.LinkText,
		Timeout:        cfg.Source.Timeout,
		MaxAttempts:    cfg.Source.Retry.MaxAttempts,
		InitialBackoff: cfg.Source.Retry.InitialBackoff,
		MaxBackoff:     cfg.Source.Retry.MaxBackoff,
	}, logger)

	// Initialize vision extractor
	extractor := vision.NewClient(vision.Config{
		BaseURL:   cfg.Vision.BaseURL,
		Model:     cfg.Vision.Model,
		APIKey:    cfg.Vision.APIKey,
		Timeout:   cfg.Vision.Timeout,
		MaxTokens: cfg.Vision.MaxTokens,
	}, logger)

	// Initialize ntfy push client
	notifier := ntfy.NewClient(ntfy.Config{
		URL:      cfg.Ntfy.URL,
		Priority: cfg.Ntfy.Priority,
		Timeout:  cfg.Ntfy.Timeout,
	}, clock, logger)

	// RabbitMQ mirroring is optional; the push path works without it.
	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
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
		pub = rabbitMQ
	}

	refreshService := service.NewRefreshService(
		calendarSource,
		extractor,
		scheduleStore,
		stateStore,
		txManager,
		notifier,
		clock,
		logger,
		cfg.Refresh,
	)

	notifyService := service.NewNotifyService(
		scheduleStore,
		sentLog,
		notifier,
		pub,
		logger,
		cfg.Notify,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if *forceRefresh {
		if _, err := refreshService.Refresh(ctx, true); err != nil {
			logger.Error("forced refresh failed", "error", err)
		}
	}

	logger.Info("starting prayer notifier",
		"site", cfg.Source.SiteURL,
		"timezone", cfg.Notify.Timezone,
		"refresh_interval", cfg.Refresh.Interval,
	)

	sched := scheduler.NewScheduler(refreshService, notifyService, clock, logger)
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
