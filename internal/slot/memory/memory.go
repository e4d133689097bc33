package memory

import (
	"context"
	"sync"

	"hesabdari/internal/slot"
)

// Slot keeps the blob in process memory. Writes and clears are counted so
// tests can assert when the ledger touched persistence.
type Slot struct {
	mu      sync.Mutex
	blob    []byte
	present bool
	writes  int
	clears  int
}

func New() *Slot {
	return &Slot{}
}

// NewWithBlob returns a slot pre-seeded with blob, as if a previous session
// had written it.
func NewWithBlob(blob string) *Slot {
	return &Slot{blob: []byte(blob), present: true}
}

// Read returns a copy of the stored blob.
func (s *Slot) Read(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.present {
		return nil, slot.ErrEmpty
	}
	return append([]byte(nil), s.blob...), nil
}

func (s *Slot) Write(_ context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = append([]byte(nil), blob...)
	s.present = true
	s.writes++
	return nil
}

func (s *Slot) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = nil
	s.present = false
	s.clears++
	return nil
}

// Present reports whether the slot currently holds a blob.
func (s *Slot) Present() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.present
}

// Writes returns the number of Write calls so far.
func (s *Slot) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Clears returns the number of Clear calls so far.
func (s *Slot) Clears() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

// Blob returns the stored blob as a string, empty when absent.
func (s *Slot) Blob() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.blob)
}
