package backend

import (
	"context"
	"fmt"

	"conti/internal/amqp"
	"conti/internal/ledger/memory"
	"conti/internal/log"
	"conti/internal/storage"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Component(log.ComponentBackend)
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite repository: %w", err)
	}

	// A dead broker degrades the service to store-only writes; the worker's
	// rebuild ticker covers the missed events.
	var events *amqp.Client
	if config.AMQPURL != "" {
		events, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events",
				log.FieldError, err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	f.logger.Info("Initialized sqlite backend",
		"db_path", config.SQLiteDBPath,
		"events_enabled", events != nil)

	cleanup := func() error {
		if events != nil {
			if err := events.Close(); err != nil {
				return err
			}
		}
		return repo.Close()
	}

	return &BackendResult{
		Store:   repo,
		Events:  events,
		Cleanup: cleanup,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store := memory.New()
	if config.SeedUser != "" {
		store.Seed(config.SeedUser)
	}

	f.logger.Info("Initialized memory backend", "seed_user", config.SeedUser)

	return &BackendResult{
		Store:   store,
		Cleanup: nil,
	}, nil
}
