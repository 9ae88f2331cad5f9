// internal/server/handlers/event.go

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"eventscout/internal/domain/event"
	"eventscout/internal/domain/geo"
	"eventscout/internal/domain/notify"
)

// EventHandler handles event CRUD and favorite HTTP requests
type EventHandler struct {
	store      event.Store
	dispatcher notify.Dispatcher
	logger     *logrus.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(store event.Store, dispatcher notify.Dispatcher, logger *logrus.Logger) *EventHandler {
	return &EventHandler{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

type eventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Address     string    `json:"address"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	CategoryIDs []int64   `json:"category_ids"`
}

func (req *eventRequest) toEvent(creatorID int64) (*event.Event, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("title is required")
	}

	location, err := geo.New(req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}

	if !req.StartTime.Before(req.EndTime) {
		return nil, fmt.Errorf("%w: start time must precede end time", event.ErrInvalidDateRange)
	}

	for _, id := range req.CategoryIDs {
		if id <= 0 {
			return nil, fmt.Errorf("%w: %d", event.ErrInvalidCategory, id)
		}
	}

	return &event.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    location,
		Address:     req.Address,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		CreatorID:   creatorID,
		CategoryIDs: req.CategoryIDs,
	}, nil
}

// CreateEvent creates a new event and dispatches notifications to
// interested users. Dispatch failure is logged but never fails the
// write.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == 0 {
		respondWithError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ev, err := req.toEvent(userID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid event", err)
		return
	}

	if err := h.store.Create(r.Context(), ev); err != nil {
		respondWithDomainError(w, err)
		return
	}

	if err := h.dispatcher.NotifyNewEvent(r.Context(), *ev); err != nil {
		h.logger.WithError(err).WithField("event_id", ev.ID).Warn("failed to dispatch new event notifications")
	}

	respondWithJSON(w, http.StatusCreated, ev)
}

// GetEvent retrieves an event by ID
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid event id", err)
		return
	}

	ev, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ev)
}

// ListEvents returns events newest-first with pagination.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 1)
	pageSize := parseIntParam(r, "limit", 10)

	events, total, err := h.store.List(r.Context(), page, pageSize)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if events == nil {
		events = []event.Event{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"events":     events,
		"pagination": event.NewPagination(total, page, pageSize),
	})
}

// UpdateEvent updates an event owned by the caller and notifies users
// who saved it.
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == 0 {
		respondWithError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	id, err := eventIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid event id", err)
		return
	}

	existing, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if existing.CreatorID != userID {
		respondWithDomainError(w, event.ErrNotOwner)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ev, err := req.toEvent(existing.CreatorID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid event", err)
		return
	}
	ev.ID = id
	ev.CreatedAt = existing.CreatedAt

	if err := h.store.Update(r.Context(), ev); err != nil {
		respondWithDomainError(w, err)
		return
	}

	if err := h.dispatcher.NotifyEventUpdate(r.Context(), *ev); err != nil {
		h.logger.WithError(err).WithField("event_id", ev.ID).Warn("failed to dispatch update notifications")
	}

	respondWithJSON(w, http.StatusOK, ev)
}

// DeleteEvent deletes an event owned by the caller. Category links,
// favorites and pending notifications cascade.
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == 0 {
		respondWithError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	id, err := eventIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid event id", err)
		return
	}

	existing, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if existing.CreatorID != userID {
		respondWithDomainError(w, event.ErrNotOwner)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		respondWithDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SaveFavorite saves an event to the caller's favorites.
func (h *EventHandler) SaveFavorite(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == 0 {
		respondWithError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	id, err := eventIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid event id", err)
		return
	}

	if _, err := h.store.GetByID(r.Context(), id); err != nil {
		respondWithDomainError(w, err)
		return
	}

	if err := h.store.SaveFavorite(r.Context(), userID, id); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"saved": true})
}

// RemoveFavorite removes an event from the caller's favorites.
func (h *EventHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == 0 {
		respondWithError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	id, err := eventIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid event id", err)
		return
	}

	if err := h.store.RemoveFavorite(r.Context(), userID, id); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"saved": false})
}

// ListFavorites returns the caller's saved events.
func (h *EventHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == 0 {
		respondWithError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	page := parseIntParam(r, "page", 1)
	pageSize := parseIntParam(r, "limit", 10)

	events, total, err := h.store.ListFavorites(r.Context(), userID, page, pageSize)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if events == nil {
		events = []event.Event{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"events":     events,
		"pagination": event.NewPagination(total, page, pageSize),
	})
}

func eventIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
