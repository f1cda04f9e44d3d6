package cart

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/example/babyshop/internal/store"
)

const cartsPrefix = "carts"

// DocumentStorage persists cart snapshots in the catalog store under
// carts/<session>. Two sessions sharing a key overwrite each other
// silently, matching the last-write-wins contract of the store.
type DocumentStorage struct {
	store store.Store
}

func NewDocumentStorage(s store.Store) *DocumentStorage {
	return &DocumentStorage{store: s}
}

func (d *DocumentStorage) Load(ctx context.Context, sessionID string) ([]byte, error) {
	raw, err := d.store.Once(ctx, cartsPrefix+"/"+sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotStored
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (d *DocumentStorage) Save(ctx context.Context, sessionID string, data []byte) error {
	return d.store.Write(ctx, cartsPrefix+"/"+sessionID, json.RawMessage(data))
}

func (d *DocumentStorage) Delete(ctx context.Context, sessionID string) error {
	return d.store.Delete(ctx, cartsPrefix+"/"+sessionID)
}
