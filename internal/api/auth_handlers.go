package api

import (
	"errors"
	"net/http"

	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/domain/user"
	"go.uber.org/zap"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authErrorStatus maps user errors to HTTP statuses
func authErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, user.ErrNotLoggedIn):
		return http.StatusUnauthorized, "Not logged in"
	case errors.Is(err, user.ErrUsernameTaken):
		return http.StatusConflict, "Username already taken"
	case errors.Is(err, user.ErrUsernameRequired):
		return http.StatusBadRequest, "Username is required"
	case errors.Is(err, auth.ErrPasswordTooShort):
		return http.StatusBadRequest, "Password must be at least 8 characters"
	case errors.Is(err, user.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, user.ErrDirectoryUnavailable):
		return http.StatusServiceUnavailable, "User directory unavailable"
	}
	return http.StatusInternalServerError, "Internal server error"
}

func (h *Handlers) respondAuthError(w http.ResponseWriter, err error) {
	status, message := authErrorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("auth request failed", zap.Error(err))
	}
	respondJSONError(w, message, status)
}

// Login handles user login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		respondJSONError(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	if err := s.Auth.Login(r.Context(), req.Username, req.Password); err != nil {
		h.respondAuthError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.Auth.CurrentUser())
}

// Register creates an account and logs it in
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req user.Registration
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := s.Auth.Register(r.Context(), req)
	if err != nil {
		h.respondAuthError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	s.Auth.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the current user
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	current := s.Auth.CurrentUser()
	if current == nil {
		h.respondAuthError(w, user.ErrNotLoggedIn)
		return
	}
	respondJSON(w, http.StatusOK, current)
}

// UpdateMe merges the supplied profile fields into the current user
func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req user.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.Auth.UpdateUserProfile(r.Context(), req); err != nil {
		h.respondAuthError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.Auth.CurrentUser())
}
