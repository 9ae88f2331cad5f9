// internal/server/handlers/user.go

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"eventscout/internal/domain/event"
	"eventscout/internal/domain/geo"
	"eventscout/internal/domain/user"
)

// UserHandler handles profile location and preference HTTP requests
type UserHandler struct {
	store user.Store
}

// NewUserHandler creates a new user handler
func NewUserHandler(store user.Store) *UserHandler {
	return &UserHandler{
		store: store,
	}
}

// GetProfile returns the caller's profile.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == 0 {
		respondWithError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	profile, err := h.store.GetByID(r.Context(), userID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

// UpdateLocation stores the caller's home location.
func (h *UserHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == 0 {
		respondWithError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, err := geo.New(req.Latitude, req.Longitude)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	if err := h.store.UpdateLocation(r.Context(), userID, p); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"location": p})
}

// SetPreferences replaces the caller's category preferences.
func (h *UserHandler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == 0 {
		respondWithError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req struct {
		CategoryIDs []int64 `json:"category_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	for _, id := range req.CategoryIDs {
		if id <= 0 {
			respondWithDomainError(w, fmt.Errorf("%w: %d", event.ErrInvalidCategory, id))
			return
		}
	}

	if err := h.store.SetCategoryPreferences(r.Context(), userID, req.CategoryIDs); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"category_ids": req.CategoryIDs})
}
