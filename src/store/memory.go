package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryIndex is a thread-safe in-memory implementation of Index.
// Used when no Postgres DSN is configured, and in tests.
type MemoryIndex struct {
	mu     sync.RWMutex
	byPath map[string]ArchivedLog
}

// NewMemoryIndex creates a new in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		byPath: make(map[string]ArchivedLog),
	}
}

// Record saves or replaces the entry for log.Path.
func (m *MemoryIndex) Record(ctx context.Context, log ArchivedLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byPath[log.Path] = log
	return nil
}

// List returns the entries for a build, ordered by path.
func (m *MemoryIndex) List(ctx context.Context, buildID int) ([]ArchivedLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []ArchivedLog{}
	for _, log := range m.byPath {
		if log.BuildID == buildID {
			result = append(result, log)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Path < result[j].Path
	})
	return result, nil
}

// Close is a no-op for the in-memory index.
func (m *MemoryIndex) Close() error {
	return nil
}
