// Package worker runs the background jobs: the periodic instance
// generation sweep and the statement export consumer.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/metrics"
	"contas/internal/services"
	"contas/internal/sheets"
	"contas/internal/storage"
)

// Worker owns the background loops. The AMQP client and statement writer
// are optional; a nil value disables the export consumer.
type Worker struct {
	store      storage.Store
	generator  *services.Generator
	statements *services.StatementService
	amqpClient *amqp.Client
	writer     sheets.StatementWriter

	sweepInterval time.Duration
	now           func() time.Time
}

func New(store storage.Store, generator *services.Generator, statements *services.StatementService,
	amqpClient *amqp.Client, writer sheets.StatementWriter, sweepInterval time.Duration) *Worker {
	return &Worker{
		store:         store,
		generator:     generator,
		statements:    statements,
		amqpClient:    amqpClient,
		writer:        writer,
		sweepInterval: sweepInterval,
		now:           time.Now,
	}
}

// Run starts the loops and blocks until the context is cancelled or one
// of them fails.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.runGenerationSweep(ctx)
	})

	if w.amqpClient != nil && w.writer != nil {
		g.Go(func() error {
			return w.runExportConsumer(ctx)
		})
	} else {
		slog.Info("Statement export consumer disabled",
			"amqp_configured", w.amqpClient != nil,
			"writer_configured", w.writer != nil)
	}

	return g.Wait()
}

// runGenerationSweep materializes the current month's instances for every
// user on a fixed interval. Generation is idempotent, so overlapping with
// on-demand generation from the API is harmless.
func (w *Worker) runGenerationSweep(ctx context.Context) error {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	w.sweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sweepOnce(ctx)
		}
	}
}

func (w *Worker) sweepOnce(ctx context.Context) {
	p := core.PeriodOf(w.now())

	userIDs, err := w.store.ListUserIDs(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Generation sweep failed to list users", "error", err)
		return
	}

	var failed int
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.generator.EnsureInstancesForPeriod(ctx, userID, p); err != nil {
			failed++
			slog.ErrorContext(ctx, "Generation sweep failed for user",
				"user_id", userID,
				"period", p.String(),
				"error", err)
		}
	}

	slog.InfoContext(ctx, "Generation sweep finished",
		"period", p.String(),
		"users", len(userIDs),
		"failed", failed)
}

// runExportConsumer drains the statement export queue, building each
// requested statement and appending it to the configured sheet.
func (w *Worker) runExportConsumer(ctx context.Context) error {
	return w.amqpClient.ConsumeStatementExports(ctx, func(msg *amqp.StatementExportMessage) error {
		if err := w.exportStatement(ctx, msg); err != nil {
			metrics.StatementExports.WithLabelValues("error").Inc()
			return err
		}
		metrics.StatementExports.WithLabelValues("ok").Inc()
		return nil
	})
}

func (w *Worker) exportStatement(ctx context.Context, msg *amqp.StatementExportMessage) error {
	p := msg.PeriodValue()
	if err := p.Validate(); err != nil {
		return fmt.Errorf("export request for %s: %w", p.String(), err)
	}

	rows, err := w.statements.BuildStatement(ctx, msg.UserID, p)
	if err != nil {
		return fmt.Errorf("build statement: %w", err)
	}

	if err := w.writer.AppendStatement(ctx, msg.UserID, p, rows); err != nil {
		return fmt.Errorf("append statement: %w", err)
	}

	slog.InfoContext(ctx, "Statement exported",
		"user_id", msg.UserID,
		"period", p.String(),
		"rows", len(rows))
	return nil
}
