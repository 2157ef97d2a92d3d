package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/example/ec-storefront/internal/i18n"
)

const paramPrefix = "p."

type languageResponse struct {
	Language     string     `json:"language"`
	Translations i18n.Table `json:"translations"`
}

type languageRequest struct {
	Language string `json:"language"`
}

type translationResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// GetTranslations returns the active language and its table
func (h *Handlers) GetTranslations(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, languageResponse{
		Language:     s.I18n.Language(),
		Translations: s.I18n.Table(),
	})
}

// SetLanguage switches the session's language
func (h *Handlers) SetLanguage(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req languageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.I18n.SetLanguage(r.Context(), req.Language); err != nil {
		if errors.Is(err, i18n.ErrInvalidLanguage) {
			respondJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondJSONError(w, "Translations unavailable", http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, http.StatusOK, languageResponse{
		Language:     s.I18n.Language(),
		Translations: s.I18n.Table(),
	})
}

// Translate resolves ?key= with placeholders taken from p.<name> parameters
func (h *Handlers) Translate(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	key := query.Get("key")
	if key == "" {
		respondJSONError(w, "key is required", http.StatusBadRequest)
		return
	}

	params := make(map[string]string)
	for name, values := range query {
		if strings.HasPrefix(name, paramPrefix) && len(values) > 0 {
			params[strings.TrimPrefix(name, paramPrefix)] = values[0]
		}
	}

	respondJSON(w, http.StatusOK, translationResponse{
		Key:   key,
		Value: s.I18n.Instant(key, params),
	})
}
