package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"hesabdari/internal/slot"
)

// Slot stores the blob in a single file. Writes go to a temporary file in
// the same directory which is then renamed over the target, so a crash never
// leaves a half-written blob behind.
type Slot struct {
	mu   sync.Mutex
	path string
}

// New returns a slot backed by path, creating its directory if needed.
func New(path string) (*Slot, error) {
	if path == "" {
		return nil, errors.New("slot file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create slot directory: %w", err)
	}
	return &Slot{path: path}, nil
}

// Path returns the file backing the slot.
func (s *Slot) Path() string {
	return s.path
}

func (s *Slot) Read(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, slot.ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read slot file: %w", err)
	}
	return b, nil
}

func (s *Slot) Write(_ context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp slot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp slot file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp slot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp slot file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace slot file: %w", err)
	}
	return nil
}

func (s *Slot) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove slot file: %w", err)
	}
	return nil
}
