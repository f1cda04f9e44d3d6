package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/babyshop/internal/blob"
	"github.com/example/babyshop/internal/catalog"
	"github.com/example/babyshop/internal/events"
	"github.com/example/babyshop/internal/sitemap"
	"github.com/example/babyshop/internal/store"
)

const (
	MaxImageBytes = 200 * 1024
	MaxImages     = 3
)

var (
	ErrNameRequired     = errors.New("product name is required")
	ErrCategoryRequired = errors.New("product category is required")
	ErrInvalidPrice     = errors.New("mrp must be positive")
	ErrInvalidDiscount  = errors.New("discount rate must be between 0 and 100")
	ErrInvalidStock     = errors.New("stock must not be negative")
	ErrNoImages         = errors.New("at least one image is required")
	ErrTooManyImages    = errors.New("a product holds at most 3 images")
	ErrImageTooLarge    = errors.New("image exceeds the 200KB limit")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrSlugTaken        = errors.New("slug already in use")
	ErrProductNotFound  = errors.New("product not found")
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageUpload is one image file collected by the admin form.
type ImageUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// ProductInput collects the admin product form fields. On update,
// KeepImages lists existing image URLs to retain; images absent from
// it are deleted best-effort.
type ProductInput struct {
	Slug         string
	Name         string
	Description  string
	Category     string
	Subcategory  string
	MRP          int
	DiscountRate int
	Stock        int
	Colors       []string
	Sizes        []string
	Tags         []string
	KeepImages   []string
	NewImages    []ImageUpload
}

// Service wraps the admin write path: validate, upload, write,
// then best-effort invalidation and sitemap regeneration. The steps
// are sequential with no transaction boundary: a doc-write failure
// after upload leaves orphaned blobs, and cleanup failures are logged
// and otherwise ignored. Nothing here retries.
type Service struct {
	store    store.Store
	blobs    blob.Store
	bus      events.Publisher
	sitemaps *sitemap.Generator
}

func NewService(s store.Store, blobs blob.Store, bus events.Publisher, sitemaps *sitemap.Generator) *Service {
	if bus == nil {
		bus = events.NopPublisher{}
	}
	return &Service{store: s, blobs: blobs, bus: bus, sitemaps: sitemaps}
}

// CreateProduct validates the form, uploads images, and writes the
// product document.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (catalog.Product, error) {
	if err := validateProduct(in); err != nil {
		return catalog.Product{}, err
	}
	if len(in.NewImages) == 0 {
		return catalog.Product{}, ErrNoImages
	}

	slug := in.Slug
	if slug == "" {
		slug = Slugify(in.Name)
	}
	if err := s.checkSlug(ctx, slug, ""); err != nil {
		return catalog.Product{}, err
	}

	id := uuid.NewString()
	urls, err := s.uploadImages(ctx, "products/"+id, in.NewImages)
	if err != nil {
		return catalog.Product{}, err
	}

	doc := catalog.ProductDoc{
		Slug:         slug,
		Name:         in.Name,
		Description:  in.Description,
		Category:     in.Category,
		Subcategory:  in.Subcategory,
		MRP:          in.MRP,
		DiscountRate: in.DiscountRate,
		Images:       urls,
		Stock:        in.Stock,
		Colors:       in.Colors,
		Sizes:        in.Sizes,
		Tags:         in.Tags,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Write(ctx, "products/"+id, doc); err != nil {
		// Uploaded blobs are now orphaned; there is no rollback.
		return catalog.Product{}, fmt.Errorf("failed to write product: %w", err)
	}

	s.afterWrite(ctx, events.KindProduct, id, events.ActionCreated)
	return doc.Normalize(id), nil
}

// UpdateProduct replaces a product document. New images are uploaded
// first; images dropped from KeepImages are deleted after the write,
// best-effort.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (catalog.Product, error) {
	raw, err := s.store.Once(ctx, "products/"+id)
	if errors.Is(err, store.ErrNotFound) {
		return catalog.Product{}, ErrProductNotFound
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("failed to read product: %w", err)
	}
	existing, err := catalog.FromDoc(id, raw)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("failed to read product: %w", err)
	}

	if err := validateProduct(in); err != nil {
		return catalog.Product{}, err
	}

	slug := in.Slug
	if slug == "" {
		slug = Slugify(in.Name)
	}
	if err := s.checkSlug(ctx, slug, id); err != nil {
		return catalog.Product{}, err
	}

	total := len(in.KeepImages) + len(in.NewImages)
	if total == 0 {
		return catalog.Product{}, ErrNoImages
	}
	if total > MaxImages {
		return catalog.Product{}, ErrTooManyImages
	}

	urls, err := s.uploadImages(ctx, "products/"+id, in.NewImages)
	if err != nil {
		return catalog.Product{}, err
	}
	images := append(append([]string{}, in.KeepImages...), urls...)

	doc := catalog.ProductDoc{
		Slug:         slug,
		Name:         in.Name,
		Description:  in.Description,
		Category:     in.Category,
		Subcategory:  in.Subcategory,
		MRP:          in.MRP,
		DiscountRate: in.DiscountRate,
		Images:       images,
		Stock:        in.Stock,
		Colors:       in.Colors,
		Sizes:        in.Sizes,
		Tags:         in.Tags,
		CreatedAt:    existing.DateAdded,
	}
	if err := s.store.Write(ctx, "products/"+id, doc); err != nil {
		return catalog.Product{}, fmt.Errorf("failed to write product: %w", err)
	}

	kept := make(map[string]bool, len(in.KeepImages))
	for _, url := range in.KeepImages {
		kept[url] = true
	}
	for _, url := range existing.Images {
		if !kept[url] {
			s.deleteBlob(ctx, url)
		}
	}

	s.afterWrite(ctx, events.KindProduct, id, events.ActionUpdated)
	return doc.Normalize(id), nil
}

// DeleteProduct removes the document, then cleans up its images
// best-effort: a failed image delete is logged as a warning and
// otherwise ignored.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	raw, err := s.store.Once(ctx, "products/"+id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read product: %w", err)
	}
	product, err := catalog.FromDoc(id, raw)
	if err != nil {
		return fmt.Errorf("failed to read product: %w", err)
	}

	if err := s.store.Delete(ctx, "products/"+id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	for _, url := range product.Images {
		s.deleteBlob(ctx, url)
	}

	s.afterWrite(ctx, events.KindProduct, id, events.ActionDeleted)
	return nil
}

// ListProducts reads the catalog directly from the store, in creation
// order, for the admin list view.
func (s *Service) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	docs, err := s.store.List(ctx, catalog.ProductsPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	products := make([]catalog.Product, 0, len(docs))
	for id, raw := range docs {
		p, err := catalog.FromDoc(id, raw)
		if err != nil {
			log.Printf("[Admin] Skipping %s: %v", id, err)
			continue
		}
		products = append(products, p)
	}
	sortByCreation(products)
	return products, nil
}

// RegenerateSitemap rebuilds and publishes the sitemap. Exposed for
// the manual admin trigger; also runs best-effort after every write.
func (s *Service) RegenerateSitemap(ctx context.Context) (string, error) {
	if s.sitemaps == nil {
		return "", errors.New("sitemap generation is not configured")
	}
	products, err := s.ListProducts(ctx)
	if err != nil {
		return "", err
	}
	return s.sitemaps.Regenerate(ctx, products)
}

func (s *Service) uploadImages(ctx context.Context, prefix string, images []ImageUpload) ([]string, error) {
	if len(images) > MaxImages {
		return nil, ErrTooManyImages
	}

	urls := make([]string, 0, len(images))
	for _, img := range images {
		if len(img.Data) > MaxImageBytes {
			return nil, fmt.Errorf("%w: %s", ErrImageTooLarge, img.Name)
		}
		ext, ok := allowedImageTypes[img.ContentType]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, img.ContentType)
		}

		objectPath := path.Join(prefix, uuid.NewString()+ext)
		url, err := s.blobs.Upload(ctx, objectPath, img.ContentType, img.Data)
		if err != nil {
			// Earlier uploads in this batch stay behind as orphans.
			return nil, fmt.Errorf("failed to upload %s: %w", img.Name, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *Service) checkSlug(ctx context.Context, slug, selfID string) error {
	docs, err := s.store.List(ctx, catalog.ProductsPrefix)
	if err != nil {
		return fmt.Errorf("failed to check slug: %w", err)
	}
	for id, raw := range docs {
		if id == selfID {
			continue
		}
		p, err := catalog.FromDoc(id, raw)
		if err != nil {
			continue
		}
		if p.Slug == slug {
			return fmt.Errorf("%w: %s", ErrSlugTaken, slug)
		}
	}
	return nil
}

// afterWrite runs the best-effort tail of every admin write: publish
// the invalidation signal and regenerate the sitemap. Failures are
// logged once and never surfaced to the admin.
func (s *Service) afterWrite(ctx context.Context, kind, id, action string) {
	err := s.bus.Publish(ctx, id, events.CatalogChanged{
		Kind:       kind,
		ID:         id,
		Action:     action,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[Admin] Failed to publish %s %s for %s: %v", kind, action, id, err)
	}

	if s.sitemaps != nil && kind == events.KindProduct {
		if _, err := s.RegenerateSitemap(ctx); err != nil {
			log.Printf("[Admin] Sitemap regeneration failed: %v", err)
		}
	}
}

func (s *Service) deleteBlob(ctx context.Context, url string) {
	if err := s.blobs.Delete(ctx, url); err != nil {
		log.Printf("[Admin] Failed to delete image %s: %v", url, err)
	}
}

func validateProduct(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrCategoryRequired
	}
	if in.MRP <= 0 {
		return ErrInvalidPrice
	}
	if in.DiscountRate < 0 || in.DiscountRate > 100 {
		return ErrInvalidDiscount
	}
	if in.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

// Slugify derives a URL-safe slug from a product name.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func sortByCreation(products []catalog.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		if !products[i].DateAdded.Equal(products[j].DateAdded) {
			return products[i].DateAdded.Before(products[j].DateAdded)
		}
		return products[i].ID < products[j].ID
	})
}
