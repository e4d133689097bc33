package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"hesabdari/internal/core"
	"hesabdari/internal/ledger"
	"hesabdari/internal/log"
)

var (
	ErrNotFound             = errors.New("transaction not found")
	ErrConfirmationRequired = errors.New("deletion must be confirmed")
)

// TransactionService turns form drafts into ledger mutations.
type TransactionService struct {
	store   *ledger.Store
	closers []io.Closer
	logger  *log.Logger
}

// NewTransactionService wraps store. Closers are released by Close, in order.
func NewTransactionService(store *ledger.Store, logger *log.Logger, closers ...io.Closer) *TransactionService {
	if logger == nil {
		logger = log.Discard()
	}
	return &TransactionService{
		store:   store,
		closers: closers,
		logger:  logger.WithComponent(log.ComponentEditor),
	}
}

// Create validates the draft and adds it as the newest transaction. Invalid
// drafts return core.FieldErrors and leave the ledger untouched.
func (s *TransactionService) Create(ctx context.Context, d core.Draft) (core.Transaction, error) {
	e, err := d.Validate()
	if err != nil {
		s.logger.DebugContext(ctx, "Rejected new transaction", log.FieldError, err.Error(), log.FieldOperation, log.OpValidate)
		return core.Transaction{}, err
	}
	t, err := s.store.Add(ctx, e)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

// Prefill returns the draft an edit form starts from.
func (s *TransactionService) Prefill(id string) (core.Draft, error) {
	t, ok := s.store.Get(id)
	if !ok {
		return core.Draft{}, ErrNotFound
	}
	return core.DraftFrom(t), nil
}

// Edit replaces every editable field of the transaction with the draft's
// values. The ID and list position stay the same. An unknown ID is a no-op
// reported as found=false.
func (s *TransactionService) Edit(ctx context.Context, id string, d core.Draft) (core.Transaction, bool, error) {
	e, err := d.Validate()
	if err != nil {
		return core.Transaction{}, false, err
	}
	t, found, err := s.store.Update(ctx, id, core.FullPatch(e))
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("edit transaction: %w", err)
	}
	return t, found, nil
}

// Delete removes the transaction once the user has confirmed it. Deleting
// an unknown ID succeeds with found=false.
func (s *TransactionService) Delete(ctx context.Context, id string, confirmed bool) (bool, error) {
	if !confirmed {
		return false, ErrConfirmationRequired
	}
	found, err := s.store.Remove(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	return found, nil
}

// Get returns one transaction.
func (s *TransactionService) Get(id string) (core.Transaction, error) {
	t, ok := s.store.Get(id)
	if !ok {
		return core.Transaction{}, ErrNotFound
	}
	return t, nil
}

// View returns the filtered list and its aggregates.
func (s *TransactionService) View(f core.Filter) core.View {
	return s.store.View(f)
}

func (s *TransactionService) Categories() []string {
	return s.store.Categories()
}

func (s *TransactionService) Revision() uint64 {
	return s.store.Revision()
}

// Close releases the storage and messaging resources handed to the service.
func (s *TransactionService) Close() error {
	var errs []error
	for _, c := range s.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %w", errors.Join(errs...))
	}
	return nil
}
