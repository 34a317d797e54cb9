// Command audit consumes diary audit events from RabbitMQ and appends them
// to a log file.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/molo/molo-go/internal/config"
	"github.com/molo/molo-go/internal/events"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	cfg := config.Load()

	logPath := pflag.String("log", "logs/audit.log", "file the events are appended to")
	queue := pflag.String("queue", cfg.Events.Queue, "queue to consume")
	pflag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("audit consumer starting", "queue", *queue, "log", *logPath)
	err := events.NewConsumer(cfg.Events.AMQPURL, *queue, *logPath).Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("audit consumer stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("audit consumer stopped")
}
