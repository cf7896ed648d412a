// Command contas-worker runs the background jobs: the periodic instance
// generation sweep and, when AMQP and a sheet target are configured, the
// statement export consumer.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"contas/internal/amqp"
	"contas/internal/backend"
	"contas/internal/config"
	applog "contas/internal/log"
	"contas/internal/services"
	"contas/internal/sheets"
	"contas/internal/sheets/google"
	"contas/internal/worker"
)

func main() {
	_ = godotenv.Load()
	applog.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := backend.Open(cfg)
	if err != nil {
		slog.Error("Failed to open storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPExportQueue)
		if err != nil {
			slog.Error("Failed to connect to AMQP broker", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	}

	var writer sheets.StatementWriter
	if cfg.GoogleSpreadsheetID != "" {
		cli, err := google.NewFromEnv(ctx)
		if err != nil {
			slog.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = cli
	}

	generator := services.NewGenerator(store)
	statements := services.NewStatementService(store, generator, amqpClient)

	w := worker.New(store, generator, statements, amqpClient, writer, cfg.GenerationInterval)

	slog.Info("Worker starting", "generation_interval", cfg.GenerationInterval.String())
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Worker failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Worker stopped")
}
