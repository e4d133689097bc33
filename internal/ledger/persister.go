package ledger

import (
	"context"
	"errors"
	"fmt"

	"hesabdari/internal/core"
	"hesabdari/internal/slot"
)

var (
	// ErrNoData means nothing has been persisted yet.
	ErrNoData = errors.New("no persisted transactions")
	// ErrCorrupt means the persisted blob could not be decoded.
	ErrCorrupt = errors.New("persisted transactions are corrupt")
)

// Persister moves the whole transaction sequence to and from durable storage.
type Persister interface {
	// Load returns the persisted sequence, ErrNoData when there is none,
	// or an error wrapping ErrCorrupt when it cannot be decoded.
	Load(ctx context.Context) ([]core.Transaction, error)
	// Save replaces the persisted sequence.
	Save(ctx context.Context, items []core.Transaction) error
	// Clear discards whatever is persisted.
	Clear(ctx context.Context) error
}

// SlotPersister stores the sequence as one JSON blob in a slot.
type SlotPersister struct {
	slot slot.Slot
}

func NewSlotPersister(s slot.Slot) *SlotPersister {
	return &SlotPersister{slot: s}
}

func (p *SlotPersister) Load(ctx context.Context) ([]core.Transaction, error) {
	blob, err := p.slot.Read(ctx)
	if errors.Is(err, slot.ErrEmpty) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("read slot: %w", err)
	}
	items, err := Decode(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return items, nil
}

func (p *SlotPersister) Save(ctx context.Context, items []core.Transaction) error {
	blob, err := Encode(items)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	if err := p.slot.Write(ctx, blob); err != nil {
		return fmt.Errorf("write slot: %w", err)
	}
	return nil
}

func (p *SlotPersister) Clear(ctx context.Context) error {
	return p.slot.Clear(ctx)
}
