package api

import (
	"net/http"

	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/shopspring/decimal"
)

type cartResponse struct {
	Items []cart.Entry    `json:"items"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

type addToCartRequest struct {
	ProductID int64 `json:"product_id"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func newCartResponse(c *cart.Store) cartResponse {
	return cartResponse{
		Items: c.Snapshot(),
		Total: c.TotalPrice().Value(),
		Count: c.ItemCount().Value(),
	}
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(s.Cart))
}

// AddToCart adds one unit of a catalog product to the cart
func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req addToCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.catalog.Product(r.Context(), req.ProductID)
	if err != nil {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}

	s.Cart.AddToCart(p)
	respondJSON(w, http.StatusOK, newCartResponse(s.Cart))
}

// UpdateCartItem sets the quantity of a cart entry; zero or less removes it
func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	productID, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req updateQuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		respondJSONError(w, "quantity is required", http.StatusBadRequest)
		return
	}

	s.Cart.UpdateQuantity(productID, *req.Quantity)
	respondJSON(w, http.StatusOK, newCartResponse(s.Cart))
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	productID, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	s.Cart.RemoveFromCart(productID)
	respondJSON(w, http.StatusOK, newCartResponse(s.Cart))
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	s.Cart.ClearCart()
	respondJSON(w, http.StatusOK, newCartResponse(s.Cart))
}
