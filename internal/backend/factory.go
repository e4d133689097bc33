package backend

import (
	"context"
	"fmt"
	"io"

	"hesabdari/internal/amqp"
	"hesabdari/internal/ledger"
	"hesabdari/internal/log"
	"hesabdari/internal/services"
	"hesabdari/internal/slot"
	"hesabdari/internal/slot/file"
	"hesabdari/internal/slot/memory"
	"hesabdari/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend opens the configured slot, connects the optional event
// publisher and loads the store.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	checks := map[string]Pinger{}
	var closers []io.Closer

	s, closer, err := f.createSlot(config)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		closers = append(closers, closer)
	}
	if p, ok := s.(Pinger); ok {
		checks["storage"] = p
	}

	opts := []ledger.Option{
		ledger.WithLogger(f.logger),
		ledger.WithFallbackPolicy(config.FallbackPolicy),
	}
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPRoutingKey, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err.Error())
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"routing_key", config.AMQPRoutingKey)
			opts = append(opts, ledger.WithNotifier(client))
			closers = append(closers, client)
			checks["amqp"] = client
		}
	}

	store := ledger.NewStore(ledger.NewSlotPersister(s), opts...)
	service := services.NewTransactionService(store, f.logger, closers...)
	if err := store.Load(ctx); err != nil {
		service.Close()
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	f.logger.Info("Initialized backend",
		log.FieldBackend, config.Type.String(),
		log.FieldCount, store.Len(),
		"amqp_enabled", checks["amqp"] != nil)

	return &BackendResult{
		Store:   store,
		Service: service,
		Checks:  checks,
		Cleanup: service.Close,
	}, nil
}

func (f *DefaultFactory) createSlot(config Config) (slot.Slot, io.Closer, error) {
	switch config.Type {
	case MemoryBackend:
		return memory.New(), nil, nil
	case FileBackend:
		s, err := file.New(config.DataFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize file slot: %w", err)
		}
		f.logger.Info("Using file slot", "path", s.Path())
		return s, nil, nil
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, config.SlotName, f.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		return repo, repo, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
