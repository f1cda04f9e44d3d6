package catalog

import "time"

// DefaultFallback is the static product list served when the catalog
// store is unreachable at startup. It keeps the storefront browsable
// instead of empty.
func DefaultFallback() []Product {
	added := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	docs := []struct {
		id  string
		doc ProductDoc
	}{
		{
			id: "fallback-teddy",
			doc: ProductDoc{
				Slug:         "soft-plush-teddy-bear",
				Name:         "Soft Plush Teddy Bear",
				Description:  "Cuddly plush teddy bear, safe for all ages.",
				Category:     "toys",
				Subcategory:  "soft-toys",
				MRP:          800,
				DiscountRate: 10,
				Images:       []string{"/static/fallback/teddy.jpg"},
				Stock:        10,
				Colors:       []string{"Brown", "White"},
				CreatedAt:    added,
			},
		},
		{
			id: "fallback-onesie",
			doc: ProductDoc{
				Slug:         "cotton-onesie",
				Name:         "Organic Cotton Onesie",
				Description:  "Breathable everyday onesie in organic cotton.",
				Category:     "clothing",
				Subcategory:  "onesies",
				MRP:          600,
				Images:       []string{"/static/fallback/onesie.jpg"},
				Stock:        25,
				Sizes:        []string{"0-3M", "3-6M", "6-12M"},
				CreatedAt:    added.Add(24 * time.Hour),
			},
		},
		{
			id: "fallback-bottle",
			doc: ProductDoc{
				Slug:         "anti-colic-feeding-bottle",
				Name:         "Anti-Colic Feeding Bottle",
				Description:  "250ml anti-colic bottle with slow-flow nipple.",
				Category:     "feeding",
				Subcategory:  "bottles",
				MRP:          450,
				DiscountRate: 5,
				Images:       []string{"/static/fallback/bottle.jpg"},
				Stock:        40,
				CreatedAt:    added.Add(48 * time.Hour),
			},
		},
	}

	products := make([]Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.doc.Normalize(d.id))
	}
	return products
}
