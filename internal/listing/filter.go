package listing

import (
	"sort"
	"strings"

	"github.com/example/babyshop/internal/catalog"
)

// SortKey selects the ordering of a filtered listing.
type SortKey string

const (
	SortFeatured  SortKey = "featured"  // input (catalog) order
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortNewest    SortKey = "newest"
	SortRelevance SortKey = "relevance" // search page: name matches rank above category matches
)

// DefaultPageSize is the admin list's client-side page size.
const DefaultPageSize = 10

// Query is one set of listing parameters. All filters are ANDed; the
// zero Query matches everything in input order.
type Query struct {
	Search      string
	Category    string // "" or "all" matches any category
	Subcategory string // only meaningful once a category is chosen
	PriceRange  string // "0-500", "500-1000", "1000-2000", "2000+", "" or "all"
	Sort        SortKey
}

// Apply derives the visible subset of products. An empty result is a
// valid, displayable state, not an error.
func Apply(products []catalog.Product, q Query) []catalog.Product {
	term := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if term != "" && !matchesSearch(p, term) {
			continue
		}
		if !matchesExact(p.Category, q.Category) {
			continue
		}
		if !matchesExact(p.Subcategory, q.Subcategory) {
			continue
		}
		if !inPriceRange(p.SpecialPrice, q.PriceRange) {
			continue
		}
		out = append(out, p)
	}

	sortProducts(out, q.Sort, term)
	return out
}

// Paginate slices a filtered list into 1-based pages. Out-of-range
// pages yield an empty slice.
func Paginate(products []catalog.Product, page, size int) []catalog.Product {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(products) {
		return []catalog.Product{}
	}
	end := start + size
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}

func matchesSearch(p catalog.Product, term string) bool {
	for _, field := range []string{p.Name, p.Description, p.Category, p.Subcategory} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func matchesExact(value, filter string) bool {
	if filter == "" || filter == "all" {
		return true
	}
	return value == filter
}

// inPriceRange checks the fixed bucket set. Buckets are half-open on
// the lower bound and inclusive on the upper; the top bucket is
// open-ended.
func inPriceRange(price int, bucket string) bool {
	switch bucket {
	case "", "all":
		return true
	case "0-500":
		return price <= 500
	case "500-1000":
		return price > 500 && price <= 1000
	case "1000-2000":
		return price > 1000 && price <= 2000
	case "2000+":
		return price > 2000
	default:
		return true
	}
}

func sortProducts(products []catalog.Product, key SortKey, term string) {
	switch key {
	case SortPriceLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].SpecialPrice < products[j].SpecialPrice
		})
	case SortPriceHigh:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].SpecialPrice > products[j].SpecialPrice
		})
	case SortNewest:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].DateAdded.After(products[j].DateAdded)
		})
	case SortRelevance:
		if term == "" {
			return
		}
		sort.SliceStable(products, func(i, j int) bool {
			return relevanceRank(products[i], term) < relevanceRank(products[j], term)
		})
	}
	// SortFeatured and unknown keys keep input order.
}

// relevanceRank orders name matches above category matches, with
// everything else (description hits) last. Ties keep input order via
// the stable sort.
func relevanceRank(p catalog.Product, term string) int {
	if strings.Contains(strings.ToLower(p.Name), term) {
		return 0
	}
	if strings.Contains(strings.ToLower(p.Category), term) ||
		strings.Contains(strings.ToLower(p.Subcategory), term) {
		return 1
	}
	return 2
}
