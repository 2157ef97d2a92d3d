package api

import (
	"errors"
	"net/http"

	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/user"
	"go.uber.org/zap"
)

type checkoutRequest struct {
	ShippingAddress *order.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

type statusRequest struct {
	Status order.Status `json:"status"`
}

// currentUserID returns the id of the logged-in user of the session
func (h *Handlers) currentUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	s, ok := currentSession(w, r)
	if !ok {
		return 0, false
	}
	current := s.Auth.CurrentUser()
	if current == nil {
		h.respondAuthError(w, user.ErrNotLoggedIn)
		return 0, false
	}
	return current.ID, true
}

// ownedOrder returns the order with the {id} param if the current user owns it
func (h *Handlers) ownedOrder(w http.ResponseWriter, r *http.Request) (*order.Order, bool) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return nil, false
	}
	orderID, ok := idParam(w, r, "id")
	if !ok {
		return nil, false
	}

	o := h.orders.OrderByID(orderID).Value()
	if o == nil || o.UserID != userID {
		respondJSONError(w, "Order not found", http.StatusNotFound)
		return nil, false
	}
	return o, true
}

// Checkout turns the session's cart into an order of the current user and
// empties the cart
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}
	s, _ := currentSession(w, r)

	var req checkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	items := s.Cart.Snapshot()
	if len(items) == 0 {
		respondJSONError(w, "Cart is empty", http.StatusBadRequest)
		return
	}

	created, err := h.orders.CreateOrder(r.Context(), order.Draft{
		UserID:          userID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		if errors.Is(err, order.ErrNegativeTotal) {
			respondJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("checkout failed", zap.Error(err))
		respondJSONError(w, "Checkout failed", http.StatusInternalServerError)
		return
	}

	s.Cart.ClearCart()
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.orders.OrdersByUser(userID).Value())
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := h.ownedOrder(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// UpdateOrderStatus moves an order of the current user to another status
func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	o, ok := h.ownedOrder(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		respondJSONError(w, order.ErrInvalidStatus.Error(), http.StatusBadRequest)
		return
	}

	if !h.orders.UpdateOrderStatus(r.Context(), o.ID, req.Status) {
		respondJSONError(w, "Order not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, h.orders.OrderByID(o.ID).Value())
}
