package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/babyshop/internal/store"
)

func newTestStorage() *DocumentStorage {
	return NewDocumentStorage(store.NewMemoryStore())
}

func TestSession_StartsEmpty(t *testing.T) {
	ctx := context.Background()

	s := NewSession(ctx, "session-1", newTestStorage())

	assert.Empty(t, s.State().Items)
	assert.Zero(t, s.State().Total)
}

func TestSession_RoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage()

	s := NewSession(ctx, "session-1", storage)
	_, err := s.Dispatch(ctx, AddItem{Product: testProduct("p1", 500), Quantity: 2, Color: "Red"})
	require.NoError(t, err)
	_, err = s.Dispatch(ctx, AddItem{Product: testProduct("p2", 300)})
	require.NoError(t, err)

	// A fresh session on the same key rehydrates the identical state.
	reloaded := NewSession(ctx, "session-1", storage)

	assert.Equal(t, s.State(), reloaded.State())
	assert.Equal(t, 1300, reloaded.State().Total)
	assert.Equal(t, 3, reloaded.State().ItemCount)
}

func TestSession_SessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage()

	a := NewSession(ctx, "session-a", storage)
	_, err := a.Dispatch(ctx, AddItem{Product: testProduct("p1", 500)})
	require.NoError(t, err)

	b := NewSession(ctx, "session-b", storage)

	assert.Empty(t, b.State().Items)
}

func TestSession_MalformedSnapshotStartsEmpty(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid json", func(t *testing.T) {
		// The document store only holds valid JSON, so truly broken
		// bytes are seeded through a verbatim storage stub.
		storage := rawStorage{"session-1": []byte(`{broken`)}

		s := NewSession(ctx, "session-1", storage)

		assert.Empty(t, s.State().Items)
	})

	t.Run("wrong shape", func(t *testing.T) {
		storage := newTestStorage()
		require.NoError(t, storage.Save(ctx, "session-1", []byte(`"not-a-snapshot"`)))

		s := NewSession(ctx, "session-1", storage)

		assert.Empty(t, s.State().Items)
	})
}

func TestSession_UnknownVersionStartsEmpty(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage()

	require.NoError(t, storage.Save(ctx, "session-1",
		[]byte(`{"version":99,"state":{"items":[{"id":"p1","quantity":3}],"total":300,"itemCount":3}}`)))

	s := NewSession(ctx, "session-1", storage)

	assert.Empty(t, s.State().Items)
}

func TestSession_EveryDispatchPersists(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage()

	s := NewSession(ctx, "session-1", storage)
	_, err := s.Dispatch(ctx, AddItem{Product: testProduct("p1", 100), Quantity: 4})
	require.NoError(t, err)
	_, err = s.Dispatch(ctx, UpdateQuantity{LineID: "p1", Quantity: 2})
	require.NoError(t, err)

	reloaded := NewSession(ctx, "session-1", storage)
	require.Len(t, reloaded.State().Items, 1)
	assert.Equal(t, 2, reloaded.State().Items[0].Quantity)

	_, err = s.Dispatch(ctx, Clear{})
	require.NoError(t, err)

	reloaded = NewSession(ctx, "session-1", storage)
	assert.Empty(t, reloaded.State().Items)
}

func TestSession_ClearRemovesStoredSnapshot(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage()

	s := NewSession(ctx, "session-1", storage)
	_, err := s.Dispatch(ctx, AddItem{Product: testProduct("p1", 100)})
	require.NoError(t, err)

	_, err = s.Dispatch(ctx, Clear{})
	require.NoError(t, err)

	_, err = storage.Load(ctx, "session-1")
	assert.ErrorIs(t, err, ErrNotStored)

	reloaded := NewSession(ctx, "session-1", storage)
	assert.Empty(t, reloaded.State().Items)
}

func TestSession_PersistFailureStillAppliesAction(t *testing.T) {
	ctx := context.Background()

	s := NewSession(ctx, "session-1", failingStorage{})
	state, err := s.Dispatch(ctx, AddItem{Product: testProduct("p1", 100)})

	assert.Error(t, err)
	assert.Len(t, state.Items, 1)
	assert.Equal(t, state, s.State())
}

// rawStorage hands back stored bytes verbatim, bypassing the document
// store's JSON validation.
type rawStorage map[string][]byte

func (r rawStorage) Load(ctx context.Context, sessionID string) ([]byte, error) {
	data, ok := r[sessionID]
	if !ok {
		return nil, ErrNotStored
	}
	return data, nil
}

func (r rawStorage) Save(ctx context.Context, sessionID string, data []byte) error {
	r[sessionID] = data
	return nil
}

func (r rawStorage) Delete(ctx context.Context, sessionID string) error {
	delete(r, sessionID)
	return nil
}

type failingStorage struct{}

func (failingStorage) Load(ctx context.Context, sessionID string) ([]byte, error) {
	return nil, ErrNotStored
}

func (failingStorage) Save(ctx context.Context, sessionID string, data []byte) error {
	return assert.AnError
}

func (failingStorage) Delete(ctx context.Context, sessionID string) error {
	return assert.AnError
}
