package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ProductDoc is the raw document shape stored in the catalog store
// under products/<id>. Prices are integer currency units; the
// discount rate is a percentage.
type ProductDoc struct {
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Subcategory  string    `json:"subcategory"`
	MRP          int       `json:"mrp"`
	DiscountRate int       `json:"discountRate"`
	Images       []string  `json:"images"`
	Stock        int       `json:"stock"`
	Colors       []string  `json:"colors,omitempty"`
	Sizes        []string  `json:"sizes,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Product is the normalized read shape served to the storefront.
// SpecialPrice and InStock are derived on read, never stored.
type Product struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Subcategory  string    `json:"subcategory"`
	MRP          int       `json:"mrp"`
	SpecialPrice int       `json:"specialPrice"`
	Images       []string  `json:"images"`
	InStock      bool      `json:"inStock"`
	Colors       []string  `json:"colors,omitempty"`
	Sizes        []string  `json:"sizes,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	DateAdded    time.Time `json:"dateAdded"`
}

// SpecialPrice derives the discounted price from MRP and a discount
// percentage, rounded to the nearest unit. A zero or negative rate
// leaves the price at MRP, so specialPrice <= mrp always holds.
func SpecialPrice(mrp, discountRate int) int {
	if discountRate <= 0 {
		return mrp
	}
	if discountRate >= 100 {
		return 0
	}
	return int(math.Round(float64(mrp) * float64(100-discountRate) / 100))
}

// FromDoc normalizes a raw store document into a Product. Missing
// fields are tolerated; the store enforces no schema.
func FromDoc(id string, raw json.RawMessage) (Product, error) {
	var doc ProductDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Product{}, fmt.Errorf("malformed product document %s: %w", id, err)
	}
	return doc.Normalize(id), nil
}

// Normalize derives the read shape from the stored document.
func (d ProductDoc) Normalize(id string) Product {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return Product{
		ID:           id,
		Slug:         d.Slug,
		Name:         d.Name,
		Description:  d.Description,
		Category:     d.Category,
		Subcategory:  d.Subcategory,
		MRP:          d.MRP,
		SpecialPrice: SpecialPrice(d.MRP, d.DiscountRate),
		Images:       images,
		InStock:      d.Stock > 0,
		Colors:       d.Colors,
		Sizes:        d.Sizes,
		Tags:         d.Tags,
		DateAdded:    d.CreatedAt,
	}
}
