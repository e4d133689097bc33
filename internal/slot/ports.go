// Package slot defines the single named durable location the ledger is
// mirrored to. A slot stores one opaque blob; it knows nothing about
// transactions.
package slot

import (
	"context"
	"errors"
)

// ErrEmpty is returned by Read when nothing has been written to the slot,
// or it has been cleared since.
var ErrEmpty = errors.New("slot is empty")

// Ports for persistence adapters.
type (
	Reader interface {
		// Read returns the stored blob or ErrEmpty.
		Read(ctx context.Context) ([]byte, error)
	}

	Writer interface {
		// Write replaces the stored blob.
		Write(ctx context.Context, blob []byte) error
	}

	// Clearer removes the blob so that later reads return ErrEmpty.
	Clearer interface {
		Clear(ctx context.Context) error
	}

	Slot interface {
		Reader
		Writer
		Clearer
	}
)
