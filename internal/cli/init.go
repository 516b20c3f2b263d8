// Package cli carries the bootstrap steps shared by cmd/conti and
// cmd/conti-worker.
package cli

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"conti/internal/backend"
	"conti/internal/config"
	"conti/internal/log"
)

// Bootstrap loads the .env file when present, installs the default
// structured logger for the given component, and returns the validated
// configuration. Exits the process when the configuration is invalid.
func Bootstrap(component string) (*log.Logger, *config.Config) {
	// Optional; deployments pass real environment variables.
	_ = godotenv.Load()

	logCfg := log.DefaultConfig()
	logCfg.Component = component
	logger := log.New(logCfg)
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	return logger, cfg
}

// InitBackend composes the storage backend from the configuration. Exits
// the process when it cannot be built; a missing broker alone does not fail
// here, the factory degrades to store-only mode.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend",
			log.FieldError, err,
			"backend", cfg.DataBackend)
		os.Exit(1)
	}

	return result
}

// CloseBackend runs the backend cleanup and logs a failure instead of
// returning it; callers are already on their way out.
func CloseBackend(logger *log.Logger, result *backend.BackendResult) {
	if result == nil || result.Cleanup == nil {
		return
	}
	if err := result.Cleanup(); err != nil {
		logger.Error("Backend cleanup failed", log.FieldError, err)
	}
}
