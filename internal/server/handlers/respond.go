// internal/server/handlers/respond.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"eventscout/internal/domain/event"
	"eventscout/internal/domain/geo"
	"eventscout/internal/domain/user"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserIDMiddleware extracts the authenticated user id injected by the
// upstream gateway. Authentication itself happens before this service.
func UserIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if header := r.Header.Get("X-User-ID"); header != "" {
			if id, err := strconv.ParseInt(header, 10, 64); err == nil && id > 0 {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// userIDFrom returns the authenticated user id, or zero when the
// caller is anonymous.
func userIDFrom(r *http.Request) int64 {
	if id, ok := r.Context().Value(userIDKey).(int64); ok {
		return id
	}
	return 0
}

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	response := map[string]string{"error": message}
	if err != nil {
		response["detail"] = err.Error()
	}

	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}

// respondWithDomainError maps domain errors onto HTTP status codes:
// validation failures are 4xx, persistence and channel failures 5xx.
func respondWithDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, geo.ErrInvalidCoordinate),
		errors.Is(err, event.ErrInvalidDateRange),
		errors.Is(err, event.ErrInvalidPagination),
		errors.Is(err, event.ErrInvalidCategory),
		errors.Is(err, event.ErrLocationRequired):
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, event.ErrNotFound), errors.Is(err, user.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, event.ErrNotOwner):
		respondWithError(w, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondWithError(w, http.StatusServiceUnavailable, "request cancelled", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, "internal error", err)
	}
}

// Query parameter helpers

func parseFloatParam(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return fallback
}
