package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/example/babyshop/internal/blob"
	"github.com/example/babyshop/internal/catalog"
)

const (
	xmlns      = "http://www.sitemaps.org/schemas/sitemap/0.9"
	objectPath = "sitemap.xml"
)

var staticPages = []string{"", "products", "about", "faq", "contact", "policies"}

type urlEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

// Build renders the sitemap for the static pages and every product
// detail page.
func Build(baseURL string, products []catalog.Product) ([]byte, error) {
	base := strings.TrimSuffix(baseURL, "/")

	set := urlSet{Xmlns: xmlns}
	for _, page := range staticPages {
		loc := base + "/"
		if page != "" {
			loc = base + "/" + page
		}
		set.URLs = append(set.URLs, urlEntry{Loc: loc})
	}
	for _, p := range products {
		if p.Slug == "" {
			continue
		}
		entry := urlEntry{Loc: base + "/products/" + p.Slug}
		if !p.DateAdded.IsZero() {
			entry.LastMod = p.DateAdded.Format(time.DateOnly)
		}
		set.URLs = append(set.URLs, entry)
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sitemap: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// Generator regenerates the sitemap and publishes it to blob storage.
// Callers treat regeneration as best-effort.
type Generator struct {
	blobs   blob.Store
	baseURL string
}

func NewGenerator(blobs blob.Store, baseURL string) *Generator {
	return &Generator{blobs: blobs, baseURL: baseURL}
}

// Regenerate builds and uploads the sitemap, returning its URL.
func (g *Generator) Regenerate(ctx context.Context, products []catalog.Product) (string, error) {
	data, err := Build(g.baseURL, products)
	if err != nil {
		return "", err
	}
	url, err := g.blobs.Upload(ctx, objectPath, "application/xml", data)
	if err != nil {
		return "", fmt.Errorf("failed to upload sitemap: %w", err)
	}
	return url, nil
}
