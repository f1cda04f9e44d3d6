package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

var ErrNotStored = errors.New("no cart stored for session")

// Storage persists serialized cart snapshots by session id. It is the
// service-side analogue of browser local storage: one opaque blob per
// key, last write wins.
type Storage interface {
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Save(ctx context.Context, sessionID string, data []byte) error
	Delete(ctx context.Context, sessionID string) error
}

const snapshotVersion = 1

// snapshot is the persisted shape. The version field exists so a
// future shape change has a migration path; unknown versions
// rehydrate as an empty cart.
type snapshot struct {
	Version int   `json:"version"`
	State   State `json:"state"`
}

// Session binds a cart state to a storage key. Every accepted action
// serializes the full new state; the write is synchronous from the
// caller's perspective and never batched.
type Session struct {
	id      string
	state   State
	storage Storage
}

// NewSession rehydrates the session's cart from storage. A missing,
// malformed, or unknown-version snapshot yields an empty cart rather
// than an error.
func NewSession(ctx context.Context, id string, storage Storage) *Session {
	s := &Session{id: id, state: Empty(), storage: storage}

	data, err := storage.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotStored) {
			log.Printf("[Cart] Failed to load session %s, starting empty: %v", id, err)
		}
		return s
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("[Cart] Malformed snapshot for session %s, starting empty: %v", id, err)
		return s
	}
	if snap.Version != snapshotVersion {
		log.Printf("[Cart] Unknown snapshot version %d for session %s, starting empty", snap.Version, id)
		return s
	}

	s.state = Reduce(s.state, SetState{State: snap.State})
	if s.state.Items == nil {
		s.state.Items = []Item{}
	}
	return s
}

// State returns the current cart.
func (s *Session) State() State {
	return s.state
}

// Dispatch applies an action and persists the result. The state
// transition is applied even when persistence fails; the error
// surfaces once to the caller and is not retried.
func (s *Session) Dispatch(ctx context.Context, action Action) (State, error) {
	s.state = Reduce(s.state, action)

	// Clearing removes the stored snapshot instead of persisting an
	// empty one, so an abandoned session leaves nothing behind.
	if _, ok := action.(Clear); ok {
		if err := s.storage.Delete(ctx, s.id); err != nil {
			return s.state, fmt.Errorf("failed to clear stored cart: %w", err)
		}
		return s.state, nil
	}

	data, err := json.Marshal(snapshot{Version: snapshotVersion, State: s.state})
	if err != nil {
		return s.state, fmt.Errorf("failed to serialize cart: %w", err)
	}
	if err := s.storage.Save(ctx, s.id, data); err != nil {
		return s.state, fmt.Errorf("failed to persist cart: %w", err)
	}
	return s.state, nil
}
