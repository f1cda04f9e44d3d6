package blob

import (
	"context"
	"sync"
)

const memoryURLPrefix = "mem://blobs/"

// MemoryStore is an in-process blob store for tests and local
// development.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	url := memoryURLPrefix + path
	m.blobs[url] = append([]byte(nil), data...)
	return url, nil
}

func (m *MemoryStore) Delete(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blobs[url]; !ok {
		return ErrNotFound
	}
	delete(m.blobs, url)
	return nil
}

// Get returns a stored blob, for test assertions.
func (m *MemoryStore) Get(url string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[url]
	return data, ok
}

// Len returns the number of stored blobs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
