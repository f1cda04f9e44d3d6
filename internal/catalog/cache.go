package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/example/babyshop/internal/store"
)

const ProductsPrefix = "products"

// Cache holds the full normalized product list in memory, fed by a
// live subscription on the catalog store. Each incoming snapshot
// replaces the list wholesale; there is no ordering guarantee between
// snapshots beyond last-received-wins. If the initial load fails the
// cache serves the static fallback list instead.
type Cache struct {
	mu       sync.RWMutex
	products []Product
	source   store.Store
	fallback []Product
}

func NewCache(source store.Store, fallback []Product) *Cache {
	return &Cache{source: source, fallback: fallback}
}

// Load performs the initial read. On failure the fallback list is
// installed and the error returned so the caller can log it; the
// cache stays usable either way.
func (c *Cache) Load(ctx context.Context) error {
	docs, err := c.source.List(ctx, ProductsPrefix)
	if err != nil {
		c.mu.Lock()
		c.products = c.fallback
		c.mu.Unlock()
		return fmt.Errorf("failed to load catalog, serving fallback: %w", err)
	}
	c.apply(docs)
	return nil
}

// Run consumes live snapshots until ctx is cancelled.
func (c *Cache) Run(ctx context.Context) error {
	ch, err := c.source.Subscribe(ctx, ProductsPrefix)
	if err != nil {
		return fmt.Errorf("failed to subscribe to catalog: %w", err)
	}
	for snap := range ch {
		c.apply(snap.Docs)
	}
	return ctx.Err()
}

func (c *Cache) apply(docs map[string]json.RawMessage) {
	products := make([]Product, 0, len(docs))
	for id, raw := range docs {
		p, err := FromDoc(id, raw)
		if err != nil {
			log.Printf("[Catalog] Skipping %s: %v", id, err)
			continue
		}
		products = append(products, p)
	}

	// Catalog order is creation order; the "featured" sort relies on
	// it being deterministic.
	sort.SliceStable(products, func(i, j int) bool {
		if !products[i].DateAdded.Equal(products[j].DateAdded) {
			return products[i].DateAdded.Before(products[j].DateAdded)
		}
		return products[i].ID < products[j].ID
	})

	c.mu.Lock()
	c.products = products
	c.mu.Unlock()
}

// Products returns a copy of the current list.
func (c *Cache) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// ByID looks a product up by store key.
func (c *Cache) ByID(id string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// BySlug looks a product up by its human-readable identifier.
func (c *Cache) BySlug(slug string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.Slug == slug {
			return p, true
		}
	}
	return Product{}, false
}
