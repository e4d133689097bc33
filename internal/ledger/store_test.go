package ledger

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"hesabdari/internal/core"
	"hesabdari/internal/slot/memory"
)

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func entry(title string, amount float64) core.Entry {
	return core.Entry{Title: title, Amount: amount, Date: fixedNow, Category: "food", Type: core.Expense}
}

func newTestStore(t *testing.T, s *memory.Slot, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	store := NewStore(NewSlotPersister(s), opts...)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return store
}

// flakySlot fails writes while failing is set.
type flakySlot struct {
	*memory.Slot
	failing bool
}

func (f *flakySlot) Write(ctx context.Context, blob []byte) error {
	if f.failing {
		return errors.New("disk full")
	}
	return f.Slot.Write(ctx, blob)
}

func TestFreshStoreDoesNotWriteEmptyList(t *testing.T) {
	slot := memory.New()
	store := newTestStore(t, slot)

	if store.Len() != 0 {
		t.Fatalf("Len = %d, want 0", store.Len())
	}
	if found, err := store.Remove(context.Background(), "missing"); err != nil || found {
		t.Fatalf("Remove = %v, %v", found, err)
	}
	if slot.Present() || slot.Writes() != 0 {
		t.Fatalf("empty store should not create the slot")
	}
}

func TestAddPrependsWithUniqueIncreasingIDs(t *testing.T) {
	slot := memory.New()
	store := newTestStore(t, slot)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		tx, err := store.Add(ctx, entry("item "+strconv.Itoa(i), 10))
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		ids = append(ids, tx.ID)
	}

	snap := store.Snapshot()
	if snap[0].ID != ids[2] || snap[2].ID != ids[0] {
		t.Fatalf("newest should be first: %v", snap)
	}
	prev := int64(0)
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			t.Fatalf("id %q is not numeric", id)
		}
		if n <= prev {
			t.Fatalf("ids not strictly increasing: %v", ids)
		}
		prev = n
	}
	if ids[0] != strconv.FormatInt(fixedNow.UnixMilli(), 10) {
		t.Fatalf("first id = %s, want clock millis", ids[0])
	}
	if slot.Writes() != 3 {
		t.Fatalf("writes = %d, want 3", slot.Writes())
	}
}

func TestAddRejectsInvalidEntry(t *testing.T) {
	slot := memory.New()
	store := newTestStore(t, slot)

	bad := entry("", 10)
	if _, err := store.Add(context.Background(), bad); !errors.Is(err, core.ErrEmptyTitle) {
		t.Fatalf("err = %v, want ErrEmptyTitle", err)
	}
	if store.Len() != 0 || slot.Writes() != 0 {
		t.Fatalf("invalid entry must not be stored")
	}
}

func TestUpdateKeepsIDAndPosition(t *testing.T) {
	store := newTestStore(t, memory.New())
	ctx := context.Background()
	first, _ := store.Add(ctx, entry("first", 10))
	second, _ := store.Add(ctx, entry("second", 20))
	rev := store.Revision()

	title := "renamed"
	amount := 99.0
	got, found, err := store.Update(ctx, first.ID, core.Patch{Title: &title, Amount: &amount})
	if err != nil || !found {
		t.Fatalf("Update = %v, %v", found, err)
	}
	if got.ID != first.ID || got.Title != "renamed" || got.Amount != 99 || got.Category != "food" {
		t.Fatalf("unexpected update result %+v", got)
	}
	snap := store.Snapshot()
	if snap[0].ID != second.ID || snap[1].ID != first.ID || snap[1].Title != "renamed" {
		t.Fatalf("position changed: %+v", snap)
	}
	if store.Revision() != rev+1 {
		t.Fatalf("revision = %d, want %d", store.Revision(), rev+1)
	}
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	slot := memory.New()
	store := newTestStore(t, slot)
	ctx := context.Background()
	store.Add(ctx, entry("only", 10))
	before := store.Snapshot()
	rev := store.Revision()

	title := "x"
	_, found, err := store.Update(ctx, "nope", core.Patch{Title: &title})
	if err != nil || found {
		t.Fatalf("Update = %v, %v", found, err)
	}
	after := store.Snapshot()
	if len(after) != 1 || after[0] != before[0] || store.Revision() != rev {
		t.Fatalf("store changed on unknown id")
	}
}

func TestRemovePreservesOrder(t *testing.T) {
	store := newTestStore(t, memory.New())
	ctx := context.Background()
	a, _ := store.Add(ctx, entry("a", 1))
	b, _ := store.Add(ctx, entry("b", 2))
	c, _ := store.Add(ctx, entry("c", 3))

	found, err := store.Remove(ctx, b.ID)
	if err != nil || !found {
		t.Fatalf("Remove = %v, %v", found, err)
	}
	snap := store.Snapshot()
	if len(snap) != 2 || snap[0].ID != c.ID || snap[1].ID != a.ID {
		t.Fatalf("unexpected order %+v", snap)
	}
	if _, ok := store.Get(b.ID); ok {
		t.Fatalf("removed transaction still retrievable")
	}
}

func TestRemovingLastTransactionPersistsEmptyList(t *testing.T) {
	slot := memory.New()
	store := newTestStore(t, slot)
	ctx := context.Background()
	tx, _ := store.Add(ctx, entry("a", 1))

	if _, err := store.Remove(ctx, tx.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if slot.Blob() != "[]" {
		t.Fatalf("blob = %q, want []", slot.Blob())
	}

	reloaded := newTestStore(t, slot)
	if reloaded.Len() != 0 {
		t.Fatalf("deleted transaction came back after reload")
	}
}

func TestReloadSeesPersistedList(t *testing.T) {
	slot := memory.New()
	store := newTestStore(t, slot)
	ctx := context.Background()
	store.Add(ctx, entry("a", 1))
	store.Add(ctx, entry("b", 2))

	reloaded := newTestStore(t, slot)
	want, got := store.Snapshot(), reloaded.Snapshot()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !sameTransaction(got[i], want[i]) {
			t.Fatalf("record %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	// IDs keep increasing past what was loaded.
	tx, err := reloaded.Add(ctx, entry("c", 3))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if tx.ID == want[0].ID || tx.ID == want[1].ID {
		t.Fatalf("reused id %s", tx.ID)
	}
}

func TestLoadRunsOnce(t *testing.T) {
	slot := memory.NewWithBlob(`[{"id":"1","title":"a","amount":1,"date":"2024-01-01T00:00:00.000Z","category":"x","type":"expense"}]`)
	store := newTestStore(t, slot)
	slot.Write(context.Background(), []byte("[]"))

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("second Load replaced in-memory state")
	}
}

func TestCorruptSlotIsClearedAndStartsEmpty(t *testing.T) {
	slot := memory.NewWithBlob("not-json")
	store := NewStore(NewSlotPersister(slot), WithClock(fixedClock))

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load should not fail on corrupt data: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("Len = %d, want 0", store.Len())
	}
	if slot.Present() || slot.Clears() != 1 {
		t.Fatalf("corrupt slot not cleared")
	}
}

func TestUnreadableDateDoesNotDiscardSlot(t *testing.T) {
	slot := memory.NewWithBlob(`[
		{"id":"1","title":"salary","amount":10,"date":"2024-01-01T00:00:00.000Z","category":"work","type":"income"},
		{"id":"2","title":"rent","amount":20,"date":"2024-01-02","category":"home","type":"expense"},
		{"id":"3","title":"tea","amount":5,"date":"someday","category":"food","type":"expense"}
	]`)
	store := newTestStore(t, slot)

	if store.Len() != 3 {
		t.Fatalf("Len = %d, want 3", store.Len())
	}
	if !slot.Present() || slot.Clears() != 0 {
		t.Fatalf("slot cleared: present=%v clears=%d", slot.Present(), slot.Clears())
	}
	rent, ok := store.Get("2")
	if !ok {
		t.Fatalf("Get(2) not found")
	}
	if want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC); !rent.Date.Equal(want) {
		t.Fatalf("rent date = %v, want %v", rent.Date, want)
	}
}

func TestLegacyRecordsGetFreshIDs(t *testing.T) {
	slot := memory.NewWithBlob(`[
		{"id":"5","title":"a","amount":1,"date":"2024-01-01T00:00:00.000Z"},
		{"id":"5","title":"b","amount":2,"date":"2024-01-01T00:00:00.000Z"},
		{"title":"c","amount":3,"date":"2024-01-01T00:00:00.000Z"}
	]`)
	store := newTestStore(t, slot)

	seen := map[string]bool{}
	for _, tx := range store.Snapshot() {
		if tx.ID == "" || seen[tx.ID] {
			t.Fatalf("id %q missing or repeated", tx.ID)
		}
		seen[tx.ID] = true
		if tx.Type != core.Expense || tx.Category != "" {
			t.Fatalf("legacy defaults missing on %+v", tx)
		}
	}
}

func TestFailedSaveRollsBack(t *testing.T) {
	slot := &flakySlot{Slot: memory.New()}
	store := NewStore(NewSlotPersister(slot), WithClock(fixedClock))
	ctx := context.Background()
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	tx, err := store.Add(ctx, entry("kept", 5))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	rev := store.Revision()

	slot.failing = true
	if _, err := store.Add(ctx, entry("lost", 6)); err == nil {
		t.Fatalf("expected Add to fail")
	}
	if found, err := store.Remove(ctx, tx.ID); err == nil || found {
		t.Fatalf("expected Remove to fail, got %v %v", found, err)
	}
	if store.Len() != 1 || store.Revision() != rev {
		t.Fatalf("failed writes leaked into memory")
	}
	if got, _ := store.Get(tx.ID); got.Title != "kept" {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestNotifierReceivesEvents(t *testing.T) {
	var (
		mu     sync.Mutex
		events []Event
	)
	n := NotifierFunc(func(_ context.Context, ev Event) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
		return errors.New("broker down")
	})
	store := newTestStore(t, memory.New(), WithNotifier(n))
	ctx := context.Background()

	tx, err := store.Add(ctx, entry("a", 1))
	if err != nil {
		t.Fatalf("notifier failure must not fail Add: %v", err)
	}
	title := "b"
	store.Update(ctx, tx.ID, core.Patch{Title: &title})
	store.Update(ctx, "missing", core.Patch{Title: &title})
	store.Remove(ctx, tx.ID)

	kinds := []EventKind{EventCreated, EventUpdated, EventDeleted}
	if len(events) != len(kinds) {
		t.Fatalf("got %d events, want %d", len(events), len(kinds))
	}
	for i, k := range kinds {
		if events[i].Kind != k || events[i].Transaction.ID != tx.ID {
			t.Fatalf("event %d = %+v", i, events[i])
		}
	}
	if events[1].Transaction.Title != "b" {
		t.Fatalf("update event should carry new state")
	}
}

func TestViewUsesFallbackPolicy(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		policy    core.FallbackPolicy
		wantTotal float64
	}{
		{core.FallbackToAll, 300},
		{core.FallbackNone, 0},
	} {
		store := newTestStore(t, memory.New(), WithFallbackPolicy(tc.policy))
		store.Add(ctx, entry("a", 100))
		store.Add(ctx, entry("b", 200))

		v := store.View(core.Filter{Search: "zzz"})
		if len(v.Items) != 0 || v.Total != tc.wantTotal {
			t.Fatalf("policy %v: items=%d total=%v", tc.policy, len(v.Items), v.Total)
		}
	}
}

func TestConcurrentAddsKeepIDsUnique(t *testing.T) {
	store := newTestStore(t, memory.New())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Add(ctx, entry("c", 1)); err != nil {
				t.Errorf("Add: %v", err)
			}
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, tx := range store.Snapshot() {
		if seen[tx.ID] {
			t.Fatalf("duplicate id %s", tx.ID)
		}
		seen[tx.ID] = true
	}
	if len(seen) != 20 {
		t.Fatalf("len = %d, want 20", len(seen))
	}
}
