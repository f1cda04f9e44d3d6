package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/example/babyshop/internal/cart"
	"github.com/example/babyshop/internal/catalog"
	"github.com/example/babyshop/internal/checkout"
	"github.com/example/babyshop/internal/listing"
)

const sessionCookie = "session_id"

// HeroLister supplies the homepage hero slides.
type HeroLister interface {
	ListHeroes(ctx context.Context) ([]catalog.Hero, error)
}

// Handlers serves the storefront surface: catalog browsing, the
// homepage hero carousel, the cart, and the checkout handoff.
type Handlers struct {
	cache          *catalog.Cache
	heroes         HeroLister
	carts          cart.Storage
	whatsappNumber string
}

func NewHandlers(cache *catalog.Cache, heroes HeroLister, carts cart.Storage, whatsappNumber string) *Handlers {
	return &Handlers{
		cache:          cache,
		heroes:         heroes,
		carts:          carts,
		whatsappNumber: whatsappNumber,
	}
}

// Product Handlers

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := listing.Query{
		Search:      q.Get("q"),
		Category:    q.Get("category"),
		Subcategory: q.Get("subcategory"),
		PriceRange:  q.Get("price"),
		Sort:        listing.SortKey(q.Get("sort")),
	}

	products := listing.Apply(h.cache.Products(), query)
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	slug := extractPathParam(r.URL.Path, "/products/")
	product, ok := h.cache.BySlug(slug)
	if !ok {
		respondError(w, "product not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// Hero Handler

func (h *Handlers) GetHeroes(w http.ResponseWriter, r *http.Request) {
	heroes, err := h.heroes.ListHeroes(r.Context())
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, heroes)
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	respondJSON(w, http.StatusOK, session.State())
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
		Color     string `json:"color"`
		Size      string `json:"size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	product, ok := h.cache.ByID(req.ProductID)
	if !ok {
		respondError(w, "product not found", http.StatusNotFound)
		return
	}

	session := h.session(w, r)
	state, err := session.Dispatch(r.Context(), cart.AddItem{
		Product:  product,
		Quantity: req.Quantity,
		Color:    req.Color,
		Size:     req.Size,
	})
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	lineID := extractPathParam(r.URL.Path, "/cart/items/")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	session := h.session(w, r)
	state, err := session.Dispatch(r.Context(), cart.UpdateQuantity{
		LineID:   lineID,
		Quantity: req.Quantity,
	})
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (h *Handlers) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	lineID := extractPathParam(r.URL.Path, "/cart/items/")

	session := h.session(w, r)
	state, err := session.Dispatch(r.Context(), cart.RemoveItem{LineID: lineID})
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	state, err := session.Dispatch(r.Context(), cart.Clear{})
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// Checkout Handler

func (h *Handlers) GetCheckoutLink(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)

	link, err := checkout.Link(h.whatsappNumber, session.State())
	if errors.Is(err, checkout.ErrEmptyCart) {
		respondError(w, "cart is empty", http.StatusBadRequest)
		return
	}
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"url":     link,
		"message": checkout.Message(session.State()),
	})
}

// session resolves the caller's cart session, minting a fresh id when
// none is presented. The id travels via header for API clients and a
// cookie for browsers.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) *cart.Session {
	id := r.Header.Get("X-Session-ID")
	if id == "" {
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			id = cookie.Value
		}
	}
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
		})
	}
	return cart.NewSession(r.Context(), id, h.carts)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}
