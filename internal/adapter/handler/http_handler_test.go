package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/core/domain"
)

type stubCatalog struct {
	products   []domain.Product
	lastSearch string
}

func (s *stubCatalog) ListProducts(_ context.Context, search string) ([]domain.Product, error) {
	s.lastSearch = search
	return s.products, nil
}

func (s *stubCatalog) GetProduct(_ context.Context, id int64) (domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrProductNotFound
}

type stubCheckout struct {
	created      domain.Order
	createErr    error
	createCalled bool
	gotItems     []domain.CartItem
	gotCustomer  domain.CustomerDetails

	order       domain.Order
	getOrderErr error

	orders []domain.Order
}

func (s *stubCheckout) CreateOrder(_ context.Context, _ domain.User, items []domain.CartItem, customer domain.CustomerDetails) (domain.Order, error) {
	s.createCalled = true
	s.gotItems = items
	s.gotCustomer = customer
	if s.createErr != nil {
		return domain.Order{}, s.createErr
	}
	return s.created, nil
}

func (s *stubCheckout) GetOrder(_ context.Context, _ domain.User, _ int64) (domain.Order, error) {
	if s.getOrderErr != nil {
		return domain.Order{}, s.getOrderErr
	}
	return s.order, nil
}

func (s *stubCheckout) GetUserOrders(_ context.Context, _ domain.User) ([]domain.Order, error) {
	return s.orders, nil
}

type stubUsers struct {
	users map[string]domain.User
}

func (s *stubUsers) GetByToken(_ context.Context, token string) (domain.User, error) {
	u, ok := s.users[token]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func testRouter(catalog *stubCatalog, checkout *stubCheckout) http.Handler {
	users := &stubUsers{users: map[string]domain.User{
		"token-alice": {ID: 1, Name: "Alice", Email: "alice@example.com"},
	}}
	return NewRouter(NewHTTPHandler(catalog, checkout), users)
}

func doRequest(t *testing.T, router http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec, payload
}

func sampleOrder() domain.Order {
	p := domain.Product{
		ID: 1, Name: "Widget", Description: "A widget",
		Price: decimal.RequireFromString("99.99"), Stock: 8, SKU: "SKU-0001", Active: true,
	}
	return domain.Order{
		ID:            42,
		UserID:        1,
		OrderNumber:   "ORD-20260829-AB12CD34",
		TotalAmount:   decimal.RequireFromString("199.98"),
		Status:        domain.OrderStatusPending,
		CustomerName:  "Alice",
		CustomerEmail: "alice@example.com",
		Items: []domain.OrderItem{{
			OrderID: 42, ProductID: 1, Quantity: 2,
			Price:    decimal.RequireFromString("99.99"),
			Subtotal: decimal.RequireFromString("199.98"),
			Product:  p,
		}},
		CreatedAt: time.Now(),
	}
}

func TestHealthCheck(t *testing.T) {
	router := testRouter(&stubCatalog{}, &stubCheckout{})

	rec, payload := doRequest(t, router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", payload["status"])
}

func TestListProducts(t *testing.T) {
	catalog := &stubCatalog{products: []domain.Product{
		{ID: 1, Name: "Widget", Price: decimal.RequireFromString("99.99"), SKU: "SKU-0001", Active: true},
		{ID: 2, Name: "Gadget", Price: decimal.RequireFromString("14.50"), SKU: "SKU-0002", Active: true},
	}}
	router := testRouter(catalog, &stubCheckout{})

	rec, payload := doRequest(t, router, http.MethodGet, "/api/catalog/products?search=wid", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "wid", catalog.lastSearch)

	data := payload["data"].([]any)
	require.Len(t, data, 2)
	first := data[0].(map[string]any)
	assert.Equal(t, "Widget", first["name"])
	assert.Equal(t, "99.99", first["price"])
}

func TestGetProduct(t *testing.T) {
	catalog := &stubCatalog{products: []domain.Product{
		{ID: 1, Name: "Widget", Price: decimal.RequireFromString("99.99"), SKU: "SKU-0001", Active: true},
	}}
	router := testRouter(catalog, &stubCheckout{})

	rec, payload := doRequest(t, router, http.MethodGet, "/api/catalog/products/1", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].(map[string]any)
	assert.Equal(t, "Widget", data["name"])

	rec, payload = doRequest(t, router, http.MethodGet, "/api/catalog/products/99", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "Product not found", payload["message"])

	rec, _ = doRequest(t, router, http.MethodGet, "/api/catalog/products/abc", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateOrder_RequiresAuthentication(t *testing.T) {
	checkout := &stubCheckout{}
	router := testRouter(&stubCatalog{}, checkout)

	body := `{"items":[{"product_id":1,"quantity":1}]}`

	rec, payload := doRequest(t, router, http.MethodPost, "/api/checkout/orders", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, payload["success"])
	assert.False(t, checkout.createCalled)

	rec, _ = doRequest(t, router, http.MethodPost, "/api/checkout/orders", "bogus-token", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, checkout.createCalled)
}

func TestCreateOrder_ValidationFailures(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		errorField string
	}{
		{"empty items", `{"items":[]}`, "items"},
		{"missing product id", `{"items":[{"quantity":2}]}`, "items.0.product_id"},
		{"zero quantity", `{"items":[{"product_id":1,"quantity":0}]}`, "items.0.quantity"},
		{"bad email", `{"items":[{"product_id":1,"quantity":1}],"customer_email":"not-an-email"}`, "customer_email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkout := &stubCheckout{}
			router := testRouter(&stubCatalog{}, checkout)

			rec, payload := doRequest(t, router, http.MethodPost, "/api/checkout/orders", "token-alice", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, false, payload["success"])
			assert.Equal(t, "Validation failed", payload["message"])

			errs := payload["errors"].(map[string]any)
			assert.Contains(t, errs, tt.errorField)
			assert.False(t, checkout.createCalled)
		})
	}
}

func TestCreateOrder_MalformedBody(t *testing.T) {
	router := testRouter(&stubCatalog{}, &stubCheckout{})

	rec, payload := doRequest(t, router, http.MethodPost, "/api/checkout/orders", "token-alice", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, payload["success"])
}

func TestCreateOrder_Success(t *testing.T) {
	checkout := &stubCheckout{created: sampleOrder()}
	router := testRouter(&stubCatalog{}, checkout)

	body := `{"items":[{"product_id":1,"quantity":2}],"shipping_address":"123 Test St"}`
	rec, payload := doRequest(t, router, http.MethodPost, "/api/checkout/orders", "token-alice", body)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "Order created successfully", payload["message"])

	data := payload["data"].(map[string]any)
	assert.Equal(t, "ORD-20260829-AB12CD34", data["order_number"])
	assert.Equal(t, "199.98", data["total_amount"])
	assert.Equal(t, "pending", data["status"])

	items := data["order_items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "99.99", item["price"])
	assert.Equal(t, "199.98", item["subtotal"])

	require.Len(t, checkout.gotItems, 1)
	assert.Equal(t, domain.CartItem{ProductID: 1, Quantity: 2}, checkout.gotItems[0])
	assert.Equal(t, "123 Test St", checkout.gotCustomer.ShippingAddress)
}

func TestCreateOrder_BusinessRuleFailures(t *testing.T) {
	tests := []struct {
		err     error
		message string
	}{
		{fmt.Errorf("orders.CreateOrder: %w", domain.ErrInsufficientStock), "Product is out of stock or has insufficient quantity"},
		{domain.ErrProductNotFound, "One or more products not found"},
		{domain.ErrEmptyCart, "Order must contain at least one item"},
	}

	for _, tt := range tests {
		checkout := &stubCheckout{createErr: tt.err}
		router := testRouter(&stubCatalog{}, checkout)

		body := `{"items":[{"product_id":1,"quantity":5}]}`
		rec, payload := doRequest(t, router, http.MethodPost, "/api/checkout/orders", "token-alice", body)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, false, payload["success"])
		assert.Equal(t, tt.message, payload["message"])
	}
}

func TestGetOrder(t *testing.T) {
	checkout := &stubCheckout{order: sampleOrder()}
	router := testRouter(&stubCatalog{}, checkout)

	rec, payload := doRequest(t, router, http.MethodGet, "/api/checkout/orders/42", "token-alice", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].(map[string]any)
	assert.Equal(t, "ORD-20260829-AB12CD34", data["order_number"])

	checkout.getOrderErr = domain.ErrNotOrderOwner
	rec, payload = doRequest(t, router, http.MethodGet, "/api/checkout/orders/42", "token-alice", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Unauthorized", payload["message"])

	checkout.getOrderErr = domain.ErrOrderNotFound
	rec, _ = doRequest(t, router, http.MethodGet, "/api/checkout/orders/42", "token-alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doRequest(t, router, http.MethodGet, "/api/checkout/orders/42", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListOrders(t *testing.T) {
	checkout := &stubCheckout{orders: []domain.Order{sampleOrder()}}
	router := testRouter(&stubCatalog{}, checkout)

	rec, payload := doRequest(t, router, http.MethodGet, "/api/checkout/orders", "token-alice", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].([]any)
	assert.Len(t, data, 1)

	rec, _ = doRequest(t, router, http.MethodGet, "/api/checkout/orders", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
