package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store used in tests and local
// development. Subscribers are notified synchronously on mutation.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string]json.RawMessage
	subs    map[int]*memorySub
	nextSub int
}

type memorySub struct {
	prefix string
	ch     chan Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]json.RawMessage),
		subs: make(map[int]*memorySub),
	}
}

func (m *MemoryStore) Once(ctx context.Context, path string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return append(json.RawMessage(nil), doc...), nil
}

func (m *MemoryStore) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(prefix), nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, prefix string) (<-chan Snapshot, error) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	sub := &memorySub{prefix: prefix, ch: make(chan Snapshot, 1)}
	m.subs[id] = sub
	sub.ch <- Snapshot{Prefix: prefix, Docs: m.listLocked(prefix)}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
		close(sub.ch)
	}()

	return sub.ch, nil
}

func (m *MemoryStore) Write(ctx context.Context, path string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = data
	m.notifyLocked(path)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, path)
	m.notifyLocked(path)
	return nil
}

func (m *MemoryStore) listLocked(prefix string) map[string]json.RawMessage {
	docs := make(map[string]json.RawMessage)
	for path, doc := range m.docs {
		if strings.HasPrefix(path, prefix+"/") {
			id := strings.TrimPrefix(path, prefix+"/")
			docs[id] = append(json.RawMessage(nil), doc...)
		}
	}
	return docs
}

// notifyLocked pushes a fresh snapshot to every subscriber whose
// prefix covers path. A slow subscriber only ever sees the latest
// snapshot: the stale buffered one is dropped first.
func (m *MemoryStore) notifyLocked(path string) {
	collection, _ := SplitPath(path)
	for _, sub := range m.subs {
		if sub.prefix != collection {
			continue
		}
		snap := Snapshot{Prefix: sub.prefix, Docs: m.listLocked(sub.prefix)}
		select {
		case sub.ch <- snap:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- snap:
			default:
			}
		}
	}
}
