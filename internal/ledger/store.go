// Package ledger owns the in-memory transaction list and keeps it mirrored
// to a persister.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"hesabdari/internal/core"
	"hesabdari/internal/log"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentLedger) }
}

// WithNotifier registers a listener for persisted mutations.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithClock replaces time.Now, used for ID generation and event stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithFallbackPolicy controls what View returns when a filter matches nothing.
func WithFallbackPolicy(p core.FallbackPolicy) Option {
	return func(s *Store) { s.policy = p }
}

// Store is the authoritative ordered list of transactions, newest first.
// Every mutation is written through the persister before it becomes
// visible; a failed write leaves the list as it was.
type Store struct {
	persister Persister
	notifier  Notifier
	logger    *log.Logger
	now       func() time.Time
	policy    core.FallbackPolicy

	mu         sync.RWMutex
	items      []core.Transaction
	loaded     bool
	slotExists bool
	lastID     int64
	revision   uint64
}

func NewStore(p Persister, opts ...Option) *Store {
	s := &Store{
		persister: p,
		logger:    log.Discard(),
		now:       time.Now,
		policy:    core.FallbackToAll,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted list once. A missing slot yields an empty store;
// an undecodable one is cleared and also yields an empty store. Later calls
// do nothing.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	items, err := s.persister.Load(ctx)
	switch {
	case err == nil:
		s.slotExists = true
	case errors.Is(err, ErrNoData):
		items = nil
	case errors.Is(err, ErrCorrupt):
		s.logger.Warn("Discarding unreadable transactions", log.FieldError, err.Error(), log.FieldOperation, log.OpLoad)
		items = nil
		s.slotExists = false
		if cerr := s.persister.Clear(ctx); cerr != nil {
			// The next write overwrites the blob anyway.
			s.logger.Error("Failed to clear unreadable slot", log.FieldError, cerr.Error())
			s.slotExists = true
		}
	default:
		return fmt.Errorf("load transactions: %w", err)
	}

	for _, t := range items {
		if n, err := strconv.ParseInt(t.ID, 10, 64); err == nil && n > s.lastID {
			s.lastID = n
		}
	}
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = s.nextIDLocked(items)
		}
	}

	if undated := countUndated(items); undated > 0 {
		s.logger.Warn("Loaded transactions with unreadable dates", log.FieldCount, undated, log.FieldOperation, log.OpLoad)
	}

	s.items = items
	s.loaded = true
	s.logger.Info("Transactions loaded", log.FieldCount, len(items), log.FieldOperation, log.OpLoad)
	return nil
}

func countUndated(items []core.Transaction) int {
	n := 0
	for _, t := range items {
		if t.Date.IsZero() {
			n++
		}
	}
	return n
}

// nextIDLocked returns a decimal millisecond timestamp that is greater than
// every ID handed out so far and not present in items.
func (s *Store) nextIDLocked(items []core.Transaction) string {
	n := s.now().UnixMilli()
	if n <= s.lastID {
		n = s.lastID + 1
	}
	for {
		id := strconv.FormatInt(n, 10)
		if indexOf(items, id) < 0 {
			s.lastID = n
			return id
		}
		n++
	}
}

func indexOf(items []core.Transaction, id string) int {
	for i, t := range items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// syncLocked writes the current list. An empty list is not written until
// something has been persisted, so a fresh install leaves the slot absent.
func (s *Store) syncLocked(ctx context.Context) error {
	if len(s.items) == 0 && !s.slotExists {
		return nil
	}
	if err := s.persister.Save(ctx, s.items); err != nil {
		return err
	}
	s.slotExists = true
	return nil
}

// commitLocked swaps in next and persists it, restoring the previous list
// when the write fails.
func (s *Store) commitLocked(ctx context.Context, next []core.Transaction, changed bool) error {
	prev := s.items
	s.items = next
	if err := s.syncLocked(ctx); err != nil {
		s.items = prev
		return err
	}
	if changed {
		s.revision++
	}
	return nil
}

// Add validates e, assigns a fresh ID and prepends the transaction.
func (s *Store) Add(ctx context.Context, e core.Entry) (core.Transaction, error) {
	if err := e.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	if err := s.loadLocked(ctx); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	t := e.WithID(s.nextIDLocked(s.items))
	next := make([]core.Transaction, 0, len(s.items)+1)
	next = append(next, t)
	next = append(next, s.items...)
	if err := s.commitLocked(ctx, next, true); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, fmt.Errorf("persist new transaction: %w", err)
	}
	ev := s.eventLocked(EventCreated, t)
	s.mu.Unlock()

	s.logger.Info("Transaction created", log.NewFields().
		WithOperation(log.OpCreate).
		WithTransaction(t.ID, t.Title, t.Amount, t.Category, string(t.Type)).
		ToSlice()...)
	s.notify(ctx, ev)
	return t, nil
}

// Update overlays p on the transaction with the given ID in place. The
// patch is not validated here. It reports false, and leaves the list
// unchanged, when no such ID exists.
func (s *Store) Update(ctx context.Context, id string, p core.Patch) (core.Transaction, bool, error) {
	s.mu.Lock()
	if err := s.loadLocked(ctx); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, false, err
	}

	i := indexOf(s.items, id)
	next := make([]core.Transaction, len(s.items))
	copy(next, s.items)
	var updated core.Transaction
	if i >= 0 {
		updated = p.Apply(next[i])
		next[i] = updated
	}
	if err := s.commitLocked(ctx, next, i >= 0); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, false, fmt.Errorf("persist transaction update: %w", err)
	}
	if i < 0 {
		s.mu.Unlock()
		return core.Transaction{}, false, nil
	}
	ev := s.eventLocked(EventUpdated, updated)
	s.mu.Unlock()

	s.logger.Info("Transaction updated", log.NewFields().
		WithOperation(log.OpUpdate).
		WithTransaction(updated.ID, updated.Title, updated.Amount, updated.Category, string(updated.Type)).
		ToSlice()...)
	s.notify(ctx, ev)
	return updated, true, nil
}

// Remove deletes the transaction with the given ID, keeping the order of
// the rest. It reports false when no such ID exists.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	if err := s.loadLocked(ctx); err != nil {
		s.mu.Unlock()
		return false, err
	}

	next := make([]core.Transaction, 0, len(s.items))
	var removed core.Transaction
	found := false
	for _, t := range s.items {
		if t.ID == id {
			removed, found = t, true
			continue
		}
		next = append(next, t)
	}
	if err := s.commitLocked(ctx, next, found); err != nil {
		s.mu.Unlock()
		return false, fmt.Errorf("persist transaction removal: %w", err)
	}
	if !found {
		s.mu.Unlock()
		return false, nil
	}
	ev := s.eventLocked(EventDeleted, removed)
	s.mu.Unlock()

	s.logger.Info("Transaction deleted", log.FieldTransactionID, id, log.FieldOperation, log.OpDelete)
	s.notify(ctx, ev)
	return true, nil
}

func (s *Store) eventLocked(kind EventKind, t core.Transaction) Event {
	return Event{Kind: kind, Transaction: t, Revision: s.revision, At: s.now().UTC()}
}

func (s *Store) notify(ctx context.Context, ev Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.logger.LogError(ctx, "Failed to publish transaction event", err, log.OpNotify,
			log.NewFields().WithTransaction(ev.Transaction.ID, ev.Transaction.Title, ev.Transaction.Amount,
				ev.Transaction.Category, string(ev.Transaction.Type)))
	}
}

// Snapshot returns a copy of the list, newest first.
func (s *Store) Snapshot() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the transaction with the given ID.
func (s *Store) Get(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.items, id); i >= 0 {
		return s.items[i], true
	}
	return core.Transaction{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Revision increases with every mutation that changed the list.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// View derives the filtered list and its totals.
func (s *Store) View(f core.Filter) core.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Derive(s.items, f, s.policy)
}

// Categories lists the distinct categories in use, sorted.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Categories(s.items)
}
