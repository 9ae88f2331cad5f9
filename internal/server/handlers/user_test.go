// internal/server/handlers/user_test.go

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventscout/internal/domain/geo"
	"eventscout/internal/domain/user"
)

// memProfileStore tracks profile mutations in memory.
type memProfileStore struct {
	user.Store

	profiles map[int64]*user.Profile
}

func (m *memProfileStore) GetByID(ctx context.Context, id int64) (*user.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return p, nil
}

func (m *memProfileStore) UpdateLocation(ctx context.Context, userID int64, p geo.Point) error {
	profile, ok := m.profiles[userID]
	if !ok {
		return user.ErrNotFound
	}
	profile.Location = &p
	return nil
}

func (m *memProfileStore) SetCategoryPreferences(ctx context.Context, userID int64, categoryIDs []int64) error {
	profile, ok := m.profiles[userID]
	if !ok {
		return user.ErrNotFound
	}
	profile.CategoryPreferences = categoryIDs
	return nil
}

func TestUpdateLocation(t *testing.T) {
	t.Run("stores a valid location", func(t *testing.T) {
		store := &memProfileStore{profiles: map[int64]*user.Profile{7: {ID: 7}}}
		h := NewUserHandler(store)

		req := httptest.NewRequest(http.MethodPut, "/profile/location",
			strings.NewReader(`{"latitude": 40.7128, "longitude": -74.0060}`))
		req.Header.Set("X-User-ID", "7")
		rr := serve(h.UpdateLocation, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, store.profiles[7].Location)
		assert.Equal(t, 40.7128, store.profiles[7].Location.Latitude)
	})

	t.Run("rejects out-of-range coordinates", func(t *testing.T) {
		store := &memProfileStore{profiles: map[int64]*user.Profile{7: {ID: 7}}}
		h := NewUserHandler(store)

		req := httptest.NewRequest(http.MethodPut, "/profile/location",
			strings.NewReader(`{"latitude": 120, "longitude": 0}`))
		req.Header.Set("X-User-ID", "7")
		rr := serve(h.UpdateLocation, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Nil(t, store.profiles[7].Location)
	})

	t.Run("requires authentication", func(t *testing.T) {
		h := NewUserHandler(&memProfileStore{})

		req := httptest.NewRequest(http.MethodPut, "/profile/location",
			strings.NewReader(`{"latitude": 40.7128, "longitude": -74.0060}`))
		rr := serve(h.UpdateLocation, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestSetPreferences(t *testing.T) {
	t.Run("replaces preferences", func(t *testing.T) {
		store := &memProfileStore{profiles: map[int64]*user.Profile{
			7: {ID: 7, CategoryPreferences: []int64{9}},
		}}
		h := NewUserHandler(store)

		req := httptest.NewRequest(http.MethodPut, "/profile/preferences",
			strings.NewReader(`{"category_ids": [1, 2, 3]}`))
		req.Header.Set("X-User-ID", "7")
		rr := serve(h.SetPreferences, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []int64{1, 2, 3}, store.profiles[7].CategoryPreferences)
	})

	t.Run("rejects non-positive category ids", func(t *testing.T) {
		store := &memProfileStore{profiles: map[int64]*user.Profile{7: {ID: 7}}}
		h := NewUserHandler(store)

		req := httptest.NewRequest(http.MethodPut, "/profile/preferences",
			strings.NewReader(`{"category_ids": [1, 0]}`))
		req.Header.Set("X-User-ID", "7")
		rr := serve(h.SetPreferences, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("clearing preferences is allowed", func(t *testing.T) {
		store := &memProfileStore{profiles: map[int64]*user.Profile{
			7: {ID: 7, CategoryPreferences: []int64{1}},
		}}
		h := NewUserHandler(store)

		req := httptest.NewRequest(http.MethodPut, "/profile/preferences",
			strings.NewReader(`{"category_ids": []}`))
		req.Header.Set("X-User-ID", "7")
		rr := serve(h.SetPreferences, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, store.profiles[7].CategoryPreferences)
	})
}

func TestGetProfile(t *testing.T) {
	t.Run("unknown user is a 404", func(t *testing.T) {
		h := NewUserHandler(&memProfileStore{profiles: map[int64]*user.Profile{}})

		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.Header.Set("X-User-ID", "42")
		rr := serve(h.GetProfile, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
