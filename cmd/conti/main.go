package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"conti/internal/cli"
	apphttp "conti/internal/http"
	"conti/internal/log"
	"conti/internal/services"
)

func main() {
	logger, cfg := cli.Bootstrap(log.ComponentApp)

	result := cli.InitBackend(context.Background(), logger, cfg)
	defer cli.CloseBackend(logger, result)

	// Assign through a local so a nil *amqp.Client never becomes a non-nil
	// interface value.
	var events services.EventPublisher
	if result.Events != nil {
		events = result.Events
	}

	ledgerSvc := services.NewLedgerService(result.Store, events)
	reportSvc := services.NewReportService(result.Store)

	srv := apphttp.NewServer(":"+cfg.Port, ledgerSvc, reportSvc)

	// Server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
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
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting conti server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
