// internal/server/handlers/search.go

package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"eventscout/internal/service/search"
)

// SearchHandler handles event search HTTP requests
type SearchHandler struct {
	engine *search.Engine
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(engine *search.Engine) *SearchHandler {
	return &SearchHandler{
		engine: engine,
	}
}

// SearchEvents runs a radius search with optional category and date
// filters.
func (h *SearchHandler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseParams(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid search parameters", err)
		return
	}

	result, err := h.engine.Search(r.Context(), params)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// NearbyEvents runs a radius search without category or date filters.
func (h *SearchHandler) NearbyEvents(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseParams(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid search parameters", err)
		return
	}

	result, err := h.engine.Nearby(r.Context(), params)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// RecommendedEvents searches around the user's stored location using
// their stored category preferences.
func (h *SearchHandler) RecommendedEvents(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == 0 {
		respondWithError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	radius := 0.0
	if v, err := parseFloatParam(r, "radius"); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid radius", err)
		return
	} else if v != nil {
		radius = *v
	}

	page := parseIntParam(r, "page", 0)
	pageSize := parseIntParam(r, "limit", 0)

	result, err := h.engine.Recommended(r.Context(), userID, radius, page, pageSize)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *SearchHandler) parseParams(r *http.Request) (search.Params, error) {
	var params search.Params
	var err error

	if params.Latitude, err = parseFloatParam(r, "latitude"); err != nil {
		return params, err
	}
	if params.Longitude, err = parseFloatParam(r, "longitude"); err != nil {
		return params, err
	}

	if v, err := parseFloatParam(r, "radius"); err != nil {
		return params, err
	} else if v != nil {
		params.RadiusKm = *v
	}

	if raw := r.URL.Query().Get("categoryIds"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return params, err
			}
			params.CategoryIDs = append(params.CategoryIDs, id)
		}
	}

	if raw := r.URL.Query().Get("startDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return params, err
		}
		params.StartDate = &t
	}
	if raw := r.URL.Query().Get("endDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return params, err
		}
		params.EndDate = &t
	}

	params.Page = parseIntParam(r, "page", 0)
	params.PageSize = parseIntParam(r, "limit", 0)
	params.UserID = userIDFrom(r)

	return params, nil
}
