// Package api exposes the storefront stores over a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/example/ec-storefront/internal/api/middleware"
	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/session"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Catalog is the read side of the product catalog
type Catalog interface {
	Products(ctx context.Context) []product.Product
	ProductsByCategory(ctx context.Context, categoryID int64) []product.Product
	Product(ctx context.Context, id int64) (product.Product, error)
	Categories(ctx context.Context) []product.Category
}

// Handlers serves the API. The catalog and the order store are shared; the
// cart, auth and translation stores come from the caller's session.
type Handlers struct {
	catalog  Catalog
	orders   *order.Store
	sessions *session.Registry
	tokens   *auth.TokenService
	logger   *zap.Logger
}

func NewHandlers(catalog Catalog, orders *order.Store, sessions *session.Registry, tokens *auth.TokenService, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		catalog:  catalog,
		orders:   orders,
		sessions: sessions,
		tokens:   tokens,
		logger:   logger.Named("api"),
	}
}

type sessionResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateSession starts an anonymous session and hands out its token
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create(r.Context())

	token, expiresAt, err := h.tokens.Issue(s.ID)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		respondJSONError(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusCreated, sessionResponse{
		SessionID: s.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondJSONError(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// currentSession returns the session put into the context by the session
// middleware
func currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		respondJSONError(w, "session required", http.StatusUnauthorized)
		return nil, false
	}
	return s, true
}

func isNotFound(err error) bool {
	return errors.Is(err, product.ErrProductNotFound)
}
