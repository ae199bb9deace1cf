package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"finance-tracker/internal/config"
	"finance-tracker/internal/events"
	"finance-tracker/internal/middleware"
	"finance-tracker/internal/services"

	"github.com/joho/godotenv"
)

// The notifier consumes broker events and hands them to the delivery
// channel. Until a mail transport is configured that channel is the log.
func main() {
	_ = godotenv.Load()

	logger := slog.New(middleware.NewTraceHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
	slog.SetDefault(logger)

	cfg := config.Load()
	if !cfg.Events.Enabled() {
		logger.Error("AMQP_URL is not set")
		os.Exit(1)
	}

	broker, err := events.NewBroker(cfg.Events)
	if err != nil {
		logger.Error("Failed to connect to message broker", "error", err)
		os.Exit(1)
	}
	defer broker.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	delivery := services.NewLogNotifier(logger, true)
	logger.Info("Starting notifier", "queue", cfg.Events.Queue)

	if err := broker.Consume(ctx, services.DeliverEvents(delivery)); err != nil {
		logger.Error("Consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Notifier stopped")
}
