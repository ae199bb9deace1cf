package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"finance-tracker/internal/config"
	"finance-tracker/internal/database"
	"finance-tracker/internal/events"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/middleware"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/server"
	"finance-tracker/internal/services"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// .env is optional outside local development
	_ = godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.CreateIndexes(); err != nil {
		logger.Warn("Failed to create indexes", "error", err)
	}

	metrics := services.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	checks := map[string]handlers.HealthCheck{}

	var notifier services.NotifierInterface
	if cfg.Events.Enabled() {
		broker, err := events.NewBroker(cfg.Events)
		if err != nil {
			logger.Warn("Failed to connect to message broker, notifications will only be logged", "error", err)
		} else {
			defer broker.Close()
			breaker := services.NewCircuitBreaker(services.DefaultCircuitBreakerConfig())
			notifier = services.NewEventNotifier(broker, breaker, logger)
			checks["broker"] = broker.Healthy
			logger.Info("Publishing notifications", "exchange", cfg.Events.Exchange)
		}
	}
	if notifier == nil {
		notifier = services.NewLogNotifier(logger, cfg.Security.ExposeResetTokens)
	}

	if cfg.IsDevelopment() && cfg.Database.Seed {
		seed(ctx, cfg, db, logger)
	}

	srv := server.New(server.Dependencies{
		Config:       cfg,
		DB:           db,
		Notifier:     notifier,
		Metrics:      metrics,
		HealthChecks: checks,
		Logger:       logger,
	})

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(middleware.NewTraceHandler(handler))
}

func seed(ctx context.Context, cfg *config.Config, db *database.DB, logger *slog.Logger) {
	seeder := services.NewSeedService(
		repositories.NewUserRepository(db.DB),
		repositories.NewTransactionRepository(db.DB),
		services.NewPasswordService(cfg.Security.BCryptCost),
		services.NewSampleDataGenerator(0),
		logger,
	)

	count, err := seeder.SeedDemoAccount(ctx, cfg.Database.DemoEmail, cfg.Database.DemoPassword)
	if err != nil {
		logger.Error("Failed to seed demo account", "error", err)
		return
	}
	logger.Info("Demo account ready", "email", cfg.Database.DemoEmail, "transactions", count)
}
