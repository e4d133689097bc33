package memory

import (
	"context"
	"errors"
	"testing"

	"hesabdari/internal/slot"
)

func TestMemorySlotReadWriteClear(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Read(ctx); !errors.Is(err, slot.ErrEmpty) {
		t.Fatalf("expected ErrEmpty on fresh slot, got %v", err)
	}

	if err := s.Write(ctx, []byte("[]")); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := s.Read(ctx)
	if err != nil || string(got) != "[]" {
		t.Fatalf("unexpected read: %q err=%v", got, err)
	}
	got[0] = 'x'
	if s.Blob() != "[]" {
		t.Fatalf("read returned shared buffer")
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.Present() {
		t.Fatalf("slot still present after clear")
	}
	if s.Writes() != 1 || s.Clears() != 1 {
		t.Fatalf("writes=%d clears=%d", s.Writes(), s.Clears())
	}
}

func TestNewWithBlob(t *testing.T) {
	s := NewWithBlob("not json")
	got, err := s.Read(context.Background())
	if err != nil || string(got) != "not json" {
		t.Fatalf("unexpected read: %q err=%v", got, err)
	}
	if s.Writes() != 0 {
		t.Fatalf("seeding counted as a write")
	}
}
