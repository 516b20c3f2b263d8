// Package backend composes the ledger store and its optional messaging side
// from configuration, so the binaries stay ignorant of which storage is in
// play.
package backend

import (
	"context"

	"conti/internal/amqp"
	"conti/internal/ledger"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult carries the composed store, the event client when AMQP is
// configured and reachable (nil otherwise), and an optional cleanup.
type BackendResult struct {
	Store   ledger.Store
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Memory specific
	SeedUser string
}

// BackendType represents the type of backend.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer.
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid.
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
