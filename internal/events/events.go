package events

import (
	"context"
	"time"
)

// Entity kinds carried by catalog-change events.
const (
	KindProduct = "product"
	KindHero    = "hero"
)

// Catalog-change actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// CatalogChanged is the cache-invalidation signal published after an
// admin write. Consumers treat it as a hint to refresh derived
// artifacts (sitemap, caches); it carries no payload beyond identity.
type CatalogChanged struct {
	Kind       string    `json:"kind"`
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher is the best-effort invalidation bus seen by admin flows.
type Publisher interface {
	Publish(ctx context.Context, key string, event CatalogChanged) error
}

// NopPublisher is used when the bus is disabled (no brokers
// configured) and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, key string, event CatalogChanged) error {
	return nil
}
