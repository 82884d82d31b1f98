// Package storage holds the sinks an exported archive can be saved to.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink stores a finished archive under a suggested file name.
type Sink interface {
	Save(ctx context.Context, data []byte, name string) error
}

// FileSink writes archives into Dir, creating it if needed.
type FileSink struct {
	Dir string
}

func (s FileSink) Save(_ context.Context, data []byte, name string) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", s.Dir, err)
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

// MemorySink keeps saved archives in memory, keyed by name.
type MemorySink struct {
	mu    sync.Mutex
	files map[string][]byte
	order []string
}

func (s *MemorySink) Save(_ context.Context, data []byte, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files == nil {
		s.files = make(map[string][]byte)
	}
	if _, ok := s.files[name]; !ok {
		s.order = append(s.order, name)
	}
	s.files[name] = data
	return nil
}

// Get returns the archive saved under name.
func (s *MemorySink) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	return data, ok
}

// Names lists saved archives in first-save order.
func (s *MemorySink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}
