package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/babyshop/internal/admin"
	"github.com/example/babyshop/internal/auth"
	"github.com/example/babyshop/internal/blob"
	"github.com/example/babyshop/internal/cart"
	"github.com/example/babyshop/internal/catalog"
	"github.com/example/babyshop/internal/store"
)

const testPassword = "correct-horse"

type testServer struct {
	*httptest.Server
	docs    *store.MemoryStore
	cache   *catalog.Cache
	service *admin.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	docs := store.NewMemoryStore()
	blobs := blob.NewMemoryStore()
	service := admin.NewService(docs, blobs, nil, nil)

	cache := catalog.NewCache(docs, nil)
	require.NoError(t, cache.Load(context.Background()))

	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	gate := auth.NewGate(hash)
	jwtService := auth.NewJWTService("test-secret-key-for-handler-tests", time.Hour)

	handlers := NewHandlers(cache, service, cart.NewDocumentStorage(docs), "919876543210")
	router := NewRouter(handlers, NewAdminHandlers(service), NewAuthHandlers(gate, jwtService), jwtService)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, docs: docs, cache: cache, service: service}
}

func (ts *testServer) seedProduct(t *testing.T, id string, doc catalog.ProductDoc) {
	t.Helper()
	require.NoError(t, ts.docs.Write(context.Background(), "products/"+id, doc))
}

// reload re-reads the store into the catalog cache. The live server
// refreshes through its subscription; tests refresh explicitly to
// avoid timing assumptions.
func (ts *testServer) reload(t *testing.T) {
	t.Helper()
	require.NoError(t, ts.cache.Load(context.Background()))
}

func (ts *testServer) get(t *testing.T, path, session string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)
	if session != "" {
		req.Header.Set("X-Session-ID", session)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (ts *testServer) do(t *testing.T, method, path, session string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set("X-Session-ID", session)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestGetProductsFiltersAndSorts(t *testing.T) {
	ts := newTestServer(t)
	ts.seedProduct(t, "p1", catalog.ProductDoc{
		Slug: "soft-teddy", Name: "Soft Teddy", Category: "toys",
		MRP: 1000, DiscountRate: 20, Stock: 5,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	ts.seedProduct(t, "p2", catalog.ProductDoc{
		Slug: "cotton-onesie", Name: "Cotton Onesie", Category: "clothing",
		MRP: 600, Stock: 3,
		CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	ts.seedProduct(t, "p3", catalog.ProductDoc{
		Slug: "wooden-blocks", Name: "Wooden Blocks", Category: "toys",
		MRP: 400, Stock: 0,
		CreatedAt: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
	})
	ts.reload(t)

	t.Run("all products", func(t *testing.T) {
		resp := ts.get(t, "/products", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		products := decode[[]catalog.Product](t, resp)
		assert.Len(t, products, 3)
	})

	t.Run("category filter", func(t *testing.T) {
		resp := ts.get(t, "/products?category=toys", "")
		products := decode[[]catalog.Product](t, resp)
		require.Len(t, products, 2)
		for _, p := range products {
			assert.Equal(t, "toys", p.Category)
		}
	})

	t.Run("price sort ascending", func(t *testing.T) {
		resp := ts.get(t, "/products?sort=price-low", "")
		products := decode[[]catalog.Product](t, resp)
		require.Len(t, products, 3)
		assert.Equal(t, []string{"wooden-blocks", "cotton-onesie", "soft-teddy"},
			[]string{products[0].Slug, products[1].Slug, products[2].Slug})
	})

	t.Run("search", func(t *testing.T) {
		resp := ts.get(t, "/products?q=TEDDY", "")
		products := decode[[]catalog.Product](t, resp)
		require.Len(t, products, 1)
		assert.Equal(t, "soft-teddy", products[0].Slug)
	})
}

func TestGetProductBySlug(t *testing.T) {
	ts := newTestServer(t)
	ts.seedProduct(t, "p1", catalog.ProductDoc{
		Slug: "soft-teddy", Name: "Soft Teddy", Category: "toys",
		MRP: 1000, DiscountRate: 20, Stock: 5,
	})
	ts.reload(t)

	resp := ts.get(t, "/products/soft-teddy", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	product := decode[catalog.Product](t, resp)
	assert.Equal(t, "p1", product.ID)
	assert.Equal(t, 800, product.SpecialPrice)

	resp = ts.get(t, "/products/no-such-slug", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestGetHeroes(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.service.CreateHero(context.Background(), admin.HeroInput{
		Desktop: []admin.ImageUpload{{Name: "wide.jpg", ContentType: "image/jpeg", Data: []byte("jpeg")}},
		Link:    "/products/soft-teddy",
	})
	require.NoError(t, err)

	resp := ts.get(t, "/heroes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	heroes := decode[[]catalog.Hero](t, resp)
	require.Len(t, heroes, 1)
	assert.Equal(t, "/products/soft-teddy", heroes[0].Link)
	assert.Len(t, heroes[0].DesktopImages, 1)
}

func TestCartFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.seedProduct(t, "p1", catalog.ProductDoc{
		Slug: "soft-teddy", Name: "Soft Teddy", Category: "toys",
		MRP: 1000, DiscountRate: 20, Stock: 5,
		Colors: []string{"brown"}, Sizes: []string{"M"},
	})
	ts.reload(t)

	session := "test-session-1"

	resp := ts.get(t, "/cart", session)
	state := decode[cart.State](t, resp)
	assert.Empty(t, state.Items)

	resp = ts.do(t, http.MethodPost, "/cart/items", session, map[string]any{
		"product_id": "p1", "quantity": 2, "color": "brown", "size": "M",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state = decode[cart.State](t, resp)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 2, state.Items[0].Quantity)
	assert.Equal(t, 1600, state.Total)

	lineID := state.Items[0].ID
	resp = ts.do(t, http.MethodPatch, "/cart/items/"+lineID, session, map[string]any{
		"quantity": 5,
	})
	state = decode[cart.State](t, resp)
	assert.Equal(t, 5, state.Items[0].Quantity)
	assert.Equal(t, 4000, state.Total)

	// The cart survives across requests for the same session.
	resp = ts.get(t, "/cart", session)
	state = decode[cart.State](t, resp)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 5, state.Items[0].Quantity)

	resp = ts.get(t, "/cart/checkout-link", session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	link := decode[map[string]string](t, resp)
	assert.Contains(t, link["url"], "wa.me/919876543210")
	assert.Contains(t, link["message"], "Soft Teddy")

	resp = ts.do(t, http.MethodDelete, "/cart/items/"+lineID, session, nil)
	state = decode[cart.State](t, resp)
	assert.Empty(t, state.Items)

	resp = ts.get(t, "/cart/checkout-link", session)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCartSessionsAreIndependent(t *testing.T) {
	ts := newTestServer(t)
	ts.seedProduct(t, "p1", catalog.ProductDoc{
		Slug: "soft-teddy", Name: "Soft Teddy", Category: "toys",
		MRP: 1000, Stock: 5,
	})
	ts.reload(t)

	resp := ts.do(t, http.MethodPost, "/cart/items", "session-a", map[string]any{
		"product_id": "p1", "quantity": 1,
	})
	decode[cart.State](t, resp)

	resp = ts.get(t, "/cart", "session-b")
	state := decode[cart.State](t, resp)
	assert.Empty(t, state.Items)
}

func TestAddUnknownProduct(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{
		"product_id": "nope", "quantity": 1,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAdminGate(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.get(t, "/admin/products", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[map[string]any](t, resp)
	token, _ := login["token"].(string)
	require.NotEmpty(t, token)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/admin/products", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	assert.Equal(t, http.StatusOK, authed.StatusCode)
}

func TestAdminCreateProductMultipart(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fields := map[string]string{
		"name":          "Soft Teddy",
		"category":      "toys",
		"mrp":           "1000",
		"discount_rate": "20",
		"stock":         "5",
		"colors":        "brown, white",
	}
	for k, v := range fields {
		require.NoError(t, form.WriteField(k, v))
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="images"; filename="teddy.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := form.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/admin/products", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	product := decode[catalog.Product](t, resp)
	assert.Equal(t, "soft-teddy", product.Slug)
	assert.Equal(t, 800, product.SpecialPrice)
	assert.Equal(t, []string{"brown", "white"}, product.Colors)
	require.Len(t, product.Images, 1)

	// The new product shows up in the admin list.
	listReq, err := http.NewRequest(http.MethodGet, ts.URL+"/admin/products", nil)
	require.NoError(t, err)
	listReq.Header.Set("Authorization", "Bearer "+token)
	listResp, err := http.DefaultClient.Do(listReq)
	require.NoError(t, err)
	list := decode[struct {
		Products []catalog.Product `json:"products"`
		Total    int               `json:"total"`
	}](t, listResp)
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Products, 1)
	assert.Equal(t, product.ID, list.Products[0].ID)
}

func TestAdminValidationStatuses(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	// Missing name is a 400.
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("category", "toys"))
	require.NoError(t, form.WriteField("mrp", "1000"))
	require.NoError(t, form.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/admin/products", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Deleting an absent product is a 404.
	delReq, err := http.NewRequest(http.MethodDelete, ts.URL+"/admin/products/nope", nil)
	require.NoError(t, err)
	delReq.Header.Set("Authorization", "Bearer "+token)
	delResp, err := http.DefaultClient.Do(delReq)
	require.NoError(t, err)
	defer delResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, delResp.StatusCode)
}

func (ts *testServer) login(t *testing.T) string {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[map[string]any](t, resp)
	token, _ := login["token"].(string)
	require.NotEmpty(t, token)
	return token
}
