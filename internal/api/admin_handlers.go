package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/babyshop/internal/admin"
	"github.com/example/babyshop/internal/listing"
)

// maxFormMemory bounds the in-memory portion of a multipart parse.
// Individual image size is enforced again by the admin service.
const maxFormMemory = 4 << 20

// AdminHandlers serves the authenticated console: product and hero
// CRUD plus the manual sitemap trigger.
type AdminHandlers struct {
	service *admin.Service
}

func NewAdminHandlers(service *admin.Service) *AdminHandlers {
	return &AdminHandlers{service: service}
}

// Product Handlers

func (h *AdminHandlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page = p
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"products": listing.Paginate(products, page, listing.DefaultPageSize),
		"page":     page,
		"total":    len(products),
	})
}

func (h *AdminHandlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	in, err := parseProductForm(r)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		respondAdminError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *AdminHandlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/admin/products/")

	in, err := parseProductForm(r)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, in)
	if err != nil {
		respondAdminError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *AdminHandlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/admin/products/")

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		respondAdminError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Hero Handlers

func (h *AdminHandlers) ListHeroes(w http.ResponseWriter, r *http.Request) {
	heroes, err := h.service.ListHeroes(r.Context())
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, heroes)
}

func (h *AdminHandlers) CreateHero(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	order, _ := strconv.Atoi(r.FormValue("order"))
	in := admin.HeroInput{
		Link:  r.FormValue("link"),
		Order: order,
	}

	var err error
	if in.Desktop, err = readUploads(r.MultipartForm, "desktop_images"); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if in.Mobile, err = readUploads(r.MultipartForm, "mobile_images"); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hero, err := h.service.CreateHero(r.Context(), in)
	if err != nil {
		respondAdminError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, hero)
}

func (h *AdminHandlers) DeleteHero(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/admin/heroes/")

	if err := h.service.DeleteHero(r.Context(), id); err != nil {
		respondAdminError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Sitemap Handler

func (h *AdminHandlers) RegenerateSitemap(w http.ResponseWriter, r *http.Request) {
	url, err := h.service.RegenerateSitemap(r.Context())
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Helper functions

// respondAdminError maps the service's sentinel errors onto HTTP
// statuses: validation failures are 400, slug collisions 409,
// missing documents 404, everything else 500.
func respondAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, admin.ErrSlugTaken):
		respondError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, admin.ErrProductNotFound),
		errors.Is(err, admin.ErrHeroNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, admin.ErrNameRequired),
		errors.Is(err, admin.ErrCategoryRequired),
		errors.Is(err, admin.ErrInvalidPrice),
		errors.Is(err, admin.ErrInvalidDiscount),
		errors.Is(err, admin.ErrInvalidStock),
		errors.Is(err, admin.ErrNoImages),
		errors.Is(err, admin.ErrTooManyImages),
		errors.Is(err, admin.ErrImageTooLarge),
		errors.Is(err, admin.ErrUnsupportedImage),
		errors.Is(err, admin.ErrNoDesktopImages):
		respondError(w, err.Error(), http.StatusBadRequest)
	default:
		respondError(w, err.Error(), http.StatusInternalServerError)
	}
}

func parseProductForm(r *http.Request) (admin.ProductInput, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return admin.ProductInput{}, err
	}

	mrp, _ := strconv.Atoi(r.FormValue("mrp"))
	discount, _ := strconv.Atoi(r.FormValue("discount_rate"))
	stock, _ := strconv.Atoi(r.FormValue("stock"))

	in := admin.ProductInput{
		Slug:         r.FormValue("slug"),
		Name:         r.FormValue("name"),
		Description:  r.FormValue("description"),
		Category:     r.FormValue("category"),
		Subcategory:  r.FormValue("subcategory"),
		MRP:          mrp,
		DiscountRate: discount,
		Stock:        stock,
		Colors:       splitList(r.FormValue("colors")),
		Sizes:        splitList(r.FormValue("sizes")),
		Tags:         splitList(r.FormValue("tags")),
		KeepImages:   r.MultipartForm.Value["keep_images"],
	}

	images, err := readUploads(r.MultipartForm, "images")
	if err != nil {
		return admin.ProductInput{}, err
	}
	in.NewImages = images
	return in, nil
}

// readUploads drains the named file field into memory. Oversized
// files are accepted here and rejected by the service, so the form
// error reads the same however the file arrives.
func readUploads(form *multipart.Form, field string) ([]admin.ImageUpload, error) {
	headers := form.File[field]
	uploads := make([]admin.ImageUpload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, admin.ImageUpload{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
