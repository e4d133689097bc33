package backend

import (
	"context"

	"hesabdari/internal/core"
	"hesabdari/internal/ledger"
	"hesabdari/internal/services"
)

// CleanupFunc releases resources opened by the factory.
type CleanupFunc func() error

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendResult is a loaded store, the service wrapping it and the
// resources behind them. Checks are probed by the readiness endpoint.
type BackendResult struct {
	Store   *ledger.Store
	Service *services.TransactionService
	Checks  map[string]Pinger
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File specific
	DataFile string

	// SQLite specific
	SQLiteDBPath string
	SlotName     string

	// Optional event publishing
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	FallbackPolicy core.FallbackPolicy
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
