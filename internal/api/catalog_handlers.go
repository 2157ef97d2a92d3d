package api

import (
	"net/http"
	"strconv"
)

// GetProducts lists the catalog, optionally narrowed by ?category=
func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("category"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondJSONError(w, "invalid category", http.StatusBadRequest)
			return
		}
		respondJSON(w, http.StatusOK, h.catalog.ProductsByCategory(r.Context(), categoryID))
		return
	}
	respondJSON(w, http.StatusOK, h.catalog.Products(r.Context()))
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	p, err := h.catalog.Product(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			respondJSONError(w, "Product not found", http.StatusNotFound)
			return
		}
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.Categories(r.Context()))
}
