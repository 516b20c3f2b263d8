package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"conti/internal/amqp"
	"conti/internal/backend"
	"conti/internal/cli"
	"conti/internal/log"
	"conti/internal/services"
	"conti/internal/worker"
)

func main() {
	logger, cfg := cli.Bootstrap(log.ComponentWorker)

	logger.Info("Starting conti-worker")

	// The memory store lives inside one process; a worker around it would
	// rebuild snapshots nobody else can see.
	if cfg.DataBackend != backend.SQLiteBackend.String() {
		logger.Error("Worker requires the sqlite backend", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	result := cli.InitBackend(context.Background(), logger, cfg)
	defer cli.CloseBackend(logger, result)

	var events services.EventPublisher
	if result.Events != nil {
		events = result.Events
	}
	ledgerSvc := services.NewLedgerService(result.Store, events)
	recurring := services.NewRecurringProcessor(result.Store, ledgerSvc)

	w := worker.NewSnapshotWorker(result.Store, recurring, worker.SnapshotWorkerConfig{
		RebuildInterval:    cfg.RebuildInterval,
		RecurringInterval:  cfg.RecurringInterval,
		RebuildConcurrency: cfg.WorkerConcurrency,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catch up on anything that changed while the worker was down.
	if err := w.StartupRebuild(ctx); err != nil {
		logger.Error("Startup rebuild failed", log.FieldError, err)
		// The rebuild ticker retries; keep going.
	}

	if err := w.Start(ctx); err != nil {
		logger.Error("Failed to start snapshot worker", log.FieldError, err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	if result.Events != nil {
		g.Go(func() error {
			err := result.Events.ConsumeLedgerEvents(gctx, func(msg *amqp.LedgerEventMessage) error {
				return w.HandleLedgerEvent(gctx, msg)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		logger.Warn("Broker unavailable, rebuilds rely on the periodic ticker")
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return w.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
