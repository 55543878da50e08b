package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"storefront/internal/core/domain"
)

// CatalogService is the read side consumed by the public catalog routes.
type CatalogService interface {
	ListProducts(ctx context.Context, search string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
}

// CheckoutService is the authenticated order surface.
type CheckoutService interface {
	CreateOrder(ctx context.Context, user domain.User, items []domain.CartItem, customer domain.CustomerDetails) (domain.Order, error)
	GetOrder(ctx context.Context, user domain.User, orderID int64) (domain.Order, error)
	GetUserOrders(ctx context.Context, user domain.User) ([]domain.Order, error)
}

type HTTPHandler struct {
	catalog  CatalogService
	checkout CheckoutService
}

func NewHTTPHandler(catalog CatalogService, checkout CheckoutService) *HTTPHandler {
	return &HTTPHandler{catalog: catalog, checkout: checkout}
}

// NewRouter wires all routes. Catalog routes are public; checkout routes
// require a bearer token resolved through users.
func NewRouter(h *HTTPHandler, users UserResolver) *chi.Mux {
	r := chi.NewRouter()
	r.Use(WithRequestID, WithLogging)

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", h.ListProducts)
			r.Get("/products/{id}", h.GetProduct)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Use(RequireAuth(users))
			r.Post("/orders", h.CreateOrder)
			r.Get("/orders", h.ListOrders)
			r.Get("/orders/{id}", h.GetOrder)
		})
	})

	return r
}

type response struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: false, Message: message})
}

type productJSON struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	SKU         string          `json:"sku"`
	IsActive    bool            `json:"is_active"`
}

type orderItemJSON struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Product   productJSON     `json:"product"`
}

type orderJSON struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	ShippingAddress string          `json:"shipping_address,omitempty"`
	OrderItems      []orderItemJSON `json:"order_items"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toProductJSON(p domain.Product) productJSON {
	return productJSON{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		SKU:         p.SKU,
		IsActive:    p.Active,
	}
}

func toOrderJSON(o domain.Order) orderJSON {
	return orderJSON{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		ShippingAddress: o.ShippingAddress,
		OrderItems: lo.Map(o.Items, func(it domain.OrderItem, _ int) orderItemJSON {
			return orderItemJSON{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Price:     it.Price,
				Subtotal:  it.Subtotal,
				Product:   toProductJSON(it.Product),
			}
		}),
		CreatedAt: o.CreatedAt,
	}
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, response{
		Success: true,
		Data:    lo.Map(products, func(p domain.Product, _ int) productJSON { return toProductJSON(p) }),
	})
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Data: toProductJSON(product)})
}

type checkoutItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type createOrderRequest struct {
	Items           []checkoutItemRequest `json:"items"`
	CustomerName    string                `json:"customer_name"`
	CustomerEmail   string                `json:"customer_email"`
	ShippingAddress string                `json:"shipping_address"`
}

func (req createOrderRequest) validate() map[string][]string {
	errs := make(map[string][]string)

	if len(req.Items) == 0 {
		errs["items"] = append(errs["items"], "at least one item is required")
	}
	for i, it := range req.Items {
		if it.ProductID <= 0 {
			field := fmt.Sprintf("items.%d.product_id", i)
			errs[field] = append(errs[field], "product_id is required")
		}
		if it.Quantity < 1 {
			field := fmt.Sprintf("items.%d.quantity", i)
			errs[field] = append(errs[field], "quantity must be at least 1")
		}
	}
	if req.CustomerEmail != "" {
		if _, err := mail.ParseAddress(req.CustomerEmail); err != nil {
			errs["customer_email"] = append(errs["customer_email"], "customer_email must be a valid email address")
		}
	}

	return errs
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User must be authenticated")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if errs := req.validate(); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, response{
			Success: false,
			Message: "Validation failed",
			Errors:  errs,
		})
		return
	}

	items := lo.Map(req.Items, func(it checkoutItemRequest, _ int) domain.CartItem {
		return domain.CartItem{ProductID: it.ProductID, Quantity: it.Quantity}
	})

	order, err := h.checkout.CreateOrder(r.Context(), user, items, domain.CustomerDetails{
		Name:            req.CustomerName,
		Email:           req.CustomerEmail,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		status, message := checkoutFailure(err)
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusCreated, response{
		Success: true,
		Message: "Order created successfully",
		Data:    toOrderJSON(order),
	})
}

// checkoutFailure maps business-rule failures to a generic client error
// with a human-readable message; everything else stays internal.
func checkoutFailure(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusBadRequest, "Order must contain at least one item"
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusBadRequest, "One or more products not found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusBadRequest, "Product is out of stock or has insufficient quantity"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User must be authenticated")
		return
	}

	orders, err := h.checkout.GetUserOrders(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, response{
		Success: true,
		Data:    lo.Map(orders, func(o domain.Order, _ int) orderJSON { return toOrderJSON(o) }),
	})
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User must be authenticated")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}

	order, err := h.checkout.GetOrder(r.Context(), user, id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, domain.ErrNotOrderOwner):
			writeError(w, http.StatusForbidden, "Unauthorized")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Data: toOrderJSON(order)})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
