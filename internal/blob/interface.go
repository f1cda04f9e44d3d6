package blob

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("blob not found")

// Store is the blob storage collaborator used for product and hero
// images. Upload returns the public URL of the stored object; Delete
// takes that URL back. Size limits are enforced by callers before
// upload, not here.
type Store interface {
	Upload(ctx context.Context, path, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}
