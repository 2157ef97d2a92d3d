package api

import (
	"net/http"

	"github.com/example/ec-storefront/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the API under /api
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/session", h.CreateSession)

		r.Get("/products", h.GetProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/categories", h.GetCategories)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(h.tokens, h.sessions))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddToCart)
				r.Put("/items/{id}", h.UpdateCartItem)
				r.Delete("/items/{id}", h.RemoveFromCart)
			})

			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", h.Login)
				r.Post("/register", h.Register)
				r.Post("/logout", h.Logout)
				r.Get("/me", h.Me)
				r.Patch("/me", h.UpdateMe)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.Checkout)
				r.Get("/", h.GetOrders)
				r.Get("/{id}", h.GetOrder)
				r.Patch("/{id}/status", h.UpdateOrderStatus)
			})

			r.Route("/i18n", func(r chi.Router) {
				r.Get("/", h.GetTranslations)
				r.Put("/language", h.SetLanguage)
				r.Get("/translate", h.Translate)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSONError(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondJSONError(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
