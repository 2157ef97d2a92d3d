package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/domain/user"
	eventmocks "github.com/example/ec-storefront/internal/events/mocks"
	"github.com/example/ec-storefront/internal/i18n"
	"github.com/example/ec-storefront/internal/infrastructure/fixture"
	"github.com/example/ec-storefront/internal/infrastructure/storage"
	"github.com/example/ec-storefront/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func testFixtures() fstest.MapFS {
	return fstest.MapFS{
		fixture.ProductsPath: {Data: []byte(`[
			{"id": 1, "name": "Ebook", "description": "", "price": 99.99, "category_id": 1},
			{"id": 2, "name": "Course", "description": "", "price": 50.00, "category_id": 2}
		]`)},
		fixture.CategoriesPath: {Data: []byte(`[{"id": 1, "name": "Books"}, {"id": 2, "name": "Courses"}]`)},
		fixture.UsersPath:      {Data: []byte(`[]`)},
		fixture.OrdersPath:     {Data: []byte(`[]`)},
		"i18n/pl.json":         {Data: []byte(`{"welcome.message": "Witaj {{name}}!", "nav": {"home": "Start"}}`)},
		"i18n/en.json":         {Data: []byte(`{"welcome.message": "Hello {{name}}, welcome!", "nav": {"home": "Home"}}`)},
	}
}

type testServer struct {
	handler   http.Handler
	orders    *order.Store
	publisher *eventmocks.MockPublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	source := fixture.NewFSSource(testFixtures())
	kv := storage.NewMemoryStore()
	publisher := eventmocks.NewMockPublisher()

	tokens, err := auth.NewTokenService("test-secret-key-for-testing-purposes", time.Hour)
	require.NoError(t, err)

	orders := order.NewStore(ctx, kv, source, order.WithPublisher(publisher))
	directory := user.NewDirectory(kv, source, user.WithHasher(auth.NewHasher(bcrypt.MinCost)))
	registry := session.NewRegistry(kv, directory, i18n.NewLoader(source, nil))
	handlers := NewHandlers(product.NewCatalog(source, nil), orders, registry, tokens, zap.NewNop())

	return &testServer{handler: NewRouter(handlers), orders: orders, publisher: publisher}
}

// do sends a JSON request and returns the recorder
func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) newSession(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/session", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (s *testServer) register(t *testing.T, token, username string) user.User {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/register", token, user.Registration{
		Username: username,
		Email:    username + "@example.com",
		Password: "password1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var u user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	return u
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// ============================================
// Session & Catalog Tests
// ============================================

func TestCreateSession_SetsCookie(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/session", "", nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session_token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestCatalog(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]product.Product](t, rec), 2)

	rec = srv.do(t, http.MethodGet, "/api/products?category=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	products := decode[[]product.Product](t, rec)
	require.Len(t, products, 1)
	assert.Equal(t, "Course", products[0].Name)

	rec = srv.do(t, http.MethodGet, "/api/products?category=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/products/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ebook", decode[product.Product](t, rec).Name)

	rec = srv.do(t, http.MethodGet, "/api/products/99", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]product.Category](t, rec), 2)
}

func TestProtectedRoutes_RequireSession(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/cart", "/api/auth/me", "/api/orders", "/api/i18n"} {
		rec := srv.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

// ============================================
// Cart Tests
// ============================================

func TestCart_Flow(t *testing.T) {
	srv := newTestServer(t)
	token := srv.newSession(t)

	srv.do(t, http.MethodPost, "/api/cart/items", token, addToCartRequest{ProductID: 1})
	srv.do(t, http.MethodPost, "/api/cart/items", token, addToCartRequest{ProductID: 2})
	rec := srv.do(t, http.MethodPut, "/api/cart/items/1", token, map[string]int{"quantity": 2})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[cartResponse](t, rec)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, 3, resp.Count)
	assert.True(t, decimal.RequireFromString("249.98").Equal(resp.Total))

	rec = srv.do(t, http.MethodPut, "/api/cart/items/2", token, map[string]int{"quantity": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[cartResponse](t, rec).Items, 1)

	rec = srv.do(t, http.MethodDelete, "/api/cart/items/1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[cartResponse](t, rec).Items)
}

func TestCart_Errors(t *testing.T) {
	srv := newTestServer(t)
	token := srv.newSession(t)

	rec := srv.do(t, http.MethodPost, "/api/cart/items", token, addToCartRequest{ProductID: 42})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodPut, "/api/cart/items/1", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/api/cart/items/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCart_IsPerSession(t *testing.T) {
	srv := newTestServer(t)
	first := srv.newSession(t)
	second := srv.newSession(t)

	srv.do(t, http.MethodPost, "/api/cart/items", first, addToCartRequest{ProductID: 1})

	rec := srv.do(t, http.MethodGet, "/api/cart", second, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[cartResponse](t, rec).Items)
}

// ============================================
// Auth Tests
// ============================================

func TestAuth_Flow(t *testing.T) {
	srv := newTestServer(t)
	token := srv.newSession(t)

	rec := srv.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	registered := srv.register(t, token, "jan")
	assert.Equal(t, int64(1), registered.ID)
	assert.Empty(t, registered.PasswordHash)

	rec = srv.do(t, http.MethodPatch, "/api/auth/me", token, map[string]string{"firstName": "Jan"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Jan", decode[user.User](t, rec).FirstName)

	rec = srv.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other := srv.newSession(t)
	rec = srv.do(t, http.MethodPost, "/api/auth/login", other, LoginRequest{Username: "jan", Password: "password1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Jan", decode[user.User](t, rec).FirstName)
}

func TestAuth_Errors(t *testing.T) {
	srv := newTestServer(t)
	token := srv.newSession(t)
	srv.register(t, token, "jan")

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"wrong password", "/api/auth/login", LoginRequest{Username: "jan", Password: "wrong-pass"}, http.StatusUnauthorized},
		{"missing fields", "/api/auth/login", LoginRequest{Username: "jan"}, http.StatusBadRequest},
		{"taken username", "/api/auth/register", user.Registration{Username: "jan", Password: "password2"}, http.StatusConflict},
		{"short password", "/api/auth/register", user.Registration{Username: "ola", Password: "short"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, tt.path, srv.newSession(t), tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestAuth_UpdateMe_NotLoggedIn(t *testing.T) {
	srv := newTestServer(t)
	token := srv.newSession(t)

	rec := srv.do(t, http.MethodPatch, "/api/auth/me", token, map[string]string{"firstName": "Jan"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ============================================
// Order Tests
// ============================================

func TestCheckout_Flow(t *testing.T) {
	srv := newTestServer(t)
	token := srv.newSession(t)
	srv.register(t, token, "jan")

	srv.do(t, http.MethodPost, "/api/cart/items", token, addToCartRequest{ProductID: 1})
	srv.do(t, http.MethodPost, "/api/cart/items", token, addToCartRequest{ProductID: 1})

	rec := srv.do(t, http.MethodPost, "/api/orders", token, checkoutRequest{
		ShippingAddress: &order.ShippingAddress{FirstName: "Jan", City: "Kraków"},
		PaymentMethod:   "card",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[order.Order](t, rec)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, order.StatusPending, created.Status)
	assert.True(t, decimal.RequireFromString("199.98").Equal(created.Total))
	assert.Equal(t, "Kraków", created.ShippingAddress.City)

	rec = srv.do(t, http.MethodGet, "/api/cart", token, nil)
	assert.Empty(t, decode[cartResponse](t, rec).Items)

	rec = srv.do(t, http.MethodGet, "/api/orders", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]order.Order](t, rec), 1)

	rec = srv.do(t, http.MethodPatch, "/api/orders/1/status", token, statusRequest{Status: order.StatusShipped})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order.StatusShipped, decode[order.Order](t, rec).Status)

	assert.Contains(t, srv.publisher.EventTypes(), order.EventOrderCreated)
	assert.Contains(t, srv.publisher.EventTypes(), order.EventOrderStatusChanged)
}

func TestCheckout_Errors(t *testing.T) {
	srv := newTestServer(t)
	token := srv.newSession(t)

	rec := srv.do(t, http.MethodPost, "/api/orders", token, checkoutRequest{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "login required")

	srv.register(t, token, "jan")
	rec = srv.do(t, http.MethodPost, "/api/orders", token, checkoutRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "cart is empty")
	assert.Empty(t, srv.orders.Snapshot())
}

func TestOrders_OwnerOnly(t *testing.T) {
	srv := newTestServer(t)
	owner := srv.newSession(t)
	srv.register(t, owner, "jan")
	srv.do(t, http.MethodPost, "/api/cart/items", owner, addToCartRequest{ProductID: 2})
	rec := srv.do(t, http.MethodPost, "/api/orders", owner, checkoutRequest{})
	require.Equal(t, http.StatusCreated, rec.Code)

	intruder := srv.newSession(t)
	srv.register(t, intruder, "ola")

	rec = srv.do(t, http.MethodGet, "/api/orders/1", intruder, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = srv.do(t, http.MethodPatch, "/api/orders/1/status", intruder, statusRequest{Status: order.StatusCancelled})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/orders/1", owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = srv.do(t, http.MethodGet, "/api/orders/99", owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = srv.do(t, http.MethodPatch, "/api/orders/1/status", owner, statusRequest{Status: "lost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================
// Translation Tests
// ============================================

func TestI18n_Flow(t *testing.T) {
	srv := newTestServer(t)
	token := srv.newSession(t)

	rec := srv.do(t, http.MethodGet, "/api/i18n", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pl", decode[languageResponse](t, rec).Language)

	rec = srv.do(t, http.MethodPut, "/api/i18n/language", token, languageRequest{Language: "en"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "en", decode[languageResponse](t, rec).Language)

	rec = srv.do(t, http.MethodGet, "/api/i18n/translate?key=welcome.message&p.name=John", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello John, welcome!", decode[translationResponse](t, rec).Value)

	rec = srv.do(t, http.MethodGet, "/api/i18n/translate?key=missing.key", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "missing.key", decode[translationResponse](t, rec).Value)
}

func TestI18n_Errors(t *testing.T) {
	srv := newTestServer(t)
	token := srv.newSession(t)

	rec := srv.do(t, http.MethodPut, "/api/i18n/language", token, languageRequest{Language: "../data"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPut, "/api/i18n/language", token, languageRequest{Language: "fr"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/i18n/translate", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
