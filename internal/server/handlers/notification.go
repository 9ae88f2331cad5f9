// internal/server/handlers/notification.go

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"eventscout/internal/domain/event"
	"eventscout/internal/domain/notify"
)

// NotificationHandler handles notification inbox HTTP requests
type NotificationHandler struct {
	store notify.Store
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(store notify.Store) *NotificationHandler {
	return &NotificationHandler{
		store: store,
	}
}

// ListNotifications returns the caller's notifications newest-first.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == 0 {
		respondWithError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	page := parseIntParam(r, "page", 1)
	pageSize := parseIntParam(r, "limit", 10)

	notifications, total, err := h.store.ListForUser(r.Context(), userID, page, pageSize)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if notifications == nil {
		notifications = []notify.Notification{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"pagination":    event.NewPagination(total, page, pageSize),
	})
}

// MarkRead marks one notification as read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == 0 {
		respondWithError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid notification id", err)
		return
	}

	if err := h.store.MarkRead(r.Context(), id, userID); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"read": true})
}

// MarkAllRead marks all of the caller's notifications as read.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	if userID == 0 {
		respondWithError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	if err := h.store.MarkAllRead(r.Context(), userID); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"read": true})
}
