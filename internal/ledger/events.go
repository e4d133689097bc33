package ledger

import (
	"context"
	"time"

	"hesabdari/internal/core"
)

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

type (
	EventKind string

	// Event describes a mutation that has already been persisted.
	Event struct {
		Kind        EventKind
		Transaction core.Transaction
		Revision    uint64
		At          time.Time
	}

	// Notifier is told about every persisted mutation. Failures are logged
	// by the store and never undo the mutation.
	Notifier interface {
		Notify(ctx context.Context, ev Event) error
	}

	// NotifierFunc adapts a function to Notifier.
	NotifierFunc func(ctx context.Context, ev Event) error
)

func (f NotifierFunc) Notify(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}
