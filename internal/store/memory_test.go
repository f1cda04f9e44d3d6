package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_WriteAndOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.Write(ctx, "products/p1", map[string]string{"name": "Teddy"})
	require.NoError(t, err)

	doc, err := s.Once(ctx, "products/p1")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(doc, &got))
	assert.Equal(t, "Teddy", got["name"])
}

func TestMemoryStore_Once_NotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Once(context.Background(), "products/missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_List(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "products/p1", map[string]string{"name": "a"}))
	require.NoError(t, s.Write(ctx, "products/p2", map[string]string{"name": "b"}))
	require.NoError(t, s.Write(ctx, "heroes/h1", map[string]string{"link": "/"}))

	docs, err := s.List(ctx, "products")
	require.NoError(t, err)

	assert.Len(t, docs, 2)
	assert.Contains(t, docs, "p1")
	assert.Contains(t, docs, "p2")
}

func TestMemoryStore_Delete_Idempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "products/p1", map[string]string{"name": "a"}))
	require.NoError(t, s.Delete(ctx, "products/p1"))
	require.NoError(t, s.Delete(ctx, "products/p1"))

	_, err := s.Once(ctx, "products/p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Subscribe(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Subscribe(ctx, "products")
	require.NoError(t, err)

	// Initial snapshot is delivered immediately.
	snap := receiveSnapshot(t, ch)
	assert.Empty(t, snap.Docs)

	require.NoError(t, s.Write(ctx, "products/p1", map[string]string{"name": "a"}))

	snap = receiveSnapshot(t, ch)
	assert.Len(t, snap.Docs, 1)
	assert.Contains(t, snap.Docs, "p1")

	require.NoError(t, s.Delete(ctx, "products/p1"))

	snap = receiveSnapshot(t, ch)
	assert.Empty(t, snap.Docs)
}

func TestMemoryStore_Subscribe_OtherCollectionIgnored(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Subscribe(ctx, "products")
	require.NoError(t, err)
	receiveSnapshot(t, ch) // initial

	require.NoError(t, s.Write(ctx, "heroes/h1", map[string]string{"link": "/"}))

	select {
	case snap := <-ch:
		t.Fatalf("unexpected snapshot for unrelated write: %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryStore_Subscribe_ClosesOnCancel(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := s.Subscribe(ctx, "products")
	require.NoError(t, err)
	receiveSnapshot(t, ch)

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path       string
		collection string
		id         string
	}{
		{"products/p1", "products", "p1"},
		{"carts/session-abc", "carts", "session-abc"},
		{"products", "products", ""},
		{"heroes/h1/extra", "heroes", "h1/extra"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			collection, id := SplitPath(tt.path)
			assert.Equal(t, tt.collection, collection)
			assert.Equal(t, tt.id, id)
		})
	}
}

func receiveSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}
