// internal/server/handlers/notification_test.go

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventscout/internal/domain/notify"
)

// memInboxStore serves a per-user inbox from memory.
type memInboxStore struct {
	notify.Store

	byUser map[int64][]notify.Notification
}

func (m *memInboxStore) ListForUser(ctx context.Context, userID int64, page, pageSize int) ([]notify.Notification, int, error) {
	rows := m.byUser[userID]
	return rows, len(rows), nil
}

func (m *memInboxStore) MarkRead(ctx context.Context, id, userID int64) error {
	for i, n := range m.byUser[userID] {
		if n.ID == id {
			m.byUser[userID][i].IsRead = true
		}
	}
	return nil
}

func (m *memInboxStore) MarkAllRead(ctx context.Context, userID int64) error {
	for i := range m.byUser[userID] {
		m.byUser[userID][i].IsRead = true
	}
	return nil
}

func notificationRouter(h *NotificationHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(UserIDMiddleware)
	r.Get("/notifications", h.ListNotifications)
	r.Put("/notifications/{id}/read", h.MarkRead)
	r.Put("/notifications/read-all", h.MarkAllRead)
	return r
}

func TestNotifications(t *testing.T) {
	store := &memInboxStore{byUser: map[int64][]notify.Notification{
		7: {
			{ID: 1, UserID: 7, EventID: 1, Kind: notify.KindNewEvent, Message: "near you", CreatedAt: time.Now()},
			{ID: 2, UserID: 7, EventID: 2, Kind: notify.KindReminderDay, Message: "tomorrow", CreatedAt: time.Now()},
		},
	}}
	router := notificationRouter(NewNotificationHandler(store))

	t.Run("list requires authentication", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("list returns the caller's inbox", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
		req.Header.Set("X-User-ID", "7")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			Notifications []notify.Notification `json:"notifications"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Len(t, body.Notifications, 2)
	})

	t.Run("empty inbox is an empty slice", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
		req.Header.Set("X-User-ID", "8")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"notifications":[]`)
	})

	t.Run("mark one read", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/notifications/1/read", nil)
		req.Header.Set("X-User-ID", "7")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, store.byUser[7][0].IsRead)
		assert.False(t, store.byUser[7][1].IsRead)
	})

	t.Run("mark all read", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/notifications/read-all", nil)
		req.Header.Set("X-User-ID", "7")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		for _, n := range store.byUser[7] {
			assert.True(t, n.IsRead)
		}
	})
}
