package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("document not found")

// Snapshot is the full child set under a subscribed prefix at a point
// in time. Successive snapshots carry no sequence numbers; the last
// one received wins.
type Snapshot struct {
	Prefix string
	Docs   map[string]json.RawMessage // child id -> document
}

// Store is a path-keyed document tree. Paths have the form
// "<collection>/<id>". The store enforces no schema; all shape
// validation happens in the caller.
type Store interface {
	// Once reads a single document. Returns ErrNotFound if absent.
	Once(ctx context.Context, path string) (json.RawMessage, error)

	// List returns all documents directly under a prefix, keyed by
	// child id. An empty tree node yields an empty map, not an error.
	List(ctx context.Context, prefix string) (map[string]json.RawMessage, error)

	// Subscribe delivers the current child set under prefix and then a
	// new Snapshot after every mutation beneath it. The channel is
	// closed when ctx is cancelled.
	Subscribe(ctx context.Context, prefix string) (<-chan Snapshot, error)

	// Write stores a full document at path, replacing any existing
	// one. The later write wins unconditionally.
	Write(ctx context.Context, path string, doc any) error

	// Delete removes the document at path. Deleting an absent path is
	// a no-op.
	Delete(ctx context.Context, path string) error
}

// SplitPath splits "<collection>/<id>" into its two segments. A path
// without a slash is treated as a bare collection.
func SplitPath(path string) (collection, id string) {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return path, ""
}
