// internal/server/handlers/search_test.go

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventscout/internal/domain/event"
	"eventscout/internal/domain/geo"
	"eventscout/internal/domain/user"
	"eventscout/internal/service/search"
)

// fakeSearchStore answers FindWithinRadius with a fixed result set.
type fakeSearchStore struct {
	event.Store

	rows  []event.WithDistance
	total int
}

func (f *fakeSearchStore) FindWithinRadius(ctx context.Context, anchor geo.Point, radiusKm float64, filter event.Filter, page, pageSize int) ([]event.WithDistance, int, error) {
	return f.rows, f.total, nil
}

type fakeProfileStore struct {
	user.Store

	users map[int64]*user.Profile
}

func (f *fakeProfileStore) GetByID(ctx context.Context, id int64) (*user.Profile, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newSearchHandler(events event.Store, users user.Store) *SearchHandler {
	engine := search.NewEngine(events, users, search.Config{
		DefaultRadiusKm: 10,
		DefaultPageSize: 10,
		MaxPageSize:     100,
	}, quietLogger())
	return NewSearchHandler(engine)
}

// serve runs the handler behind the user id middleware, the way the
// router mounts it.
func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	UserIDMiddleware(h).ServeHTTP(rr, req)
	return rr
}

func TestSearchEvents(t *testing.T) {
	rows := []event.WithDistance{
		{Event: event.Event{ID: 1, Title: "Downtown Meetup"}, DistanceKm: 2.0},
		{Event: event.Event{ID: 2, Title: "Rooftop Concert"}, DistanceKm: 8.1},
	}

	t.Run("returns matching events", func(t *testing.T) {
		h := newSearchHandler(&fakeSearchStore{rows: rows, total: 2}, &fakeProfileStore{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/search/events?latitude=40.7128&longitude=-74.0060&radius=10", nil)
		rr := serve(h.SearchEvents, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var result event.SearchResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		require.Len(t, result.Events, 2)
		assert.Equal(t, int64(1), result.Events[0].ID)
		assert.Equal(t, 2, result.Pagination.Total)
	})

	t.Run("missing location is a 400", func(t *testing.T) {
		h := newSearchHandler(&fakeSearchStore{}, &fakeProfileStore{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/search/events", nil)
		rr := serve(h.SearchEvents, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "location")
	})

	t.Run("half-supplied coordinates are a 400", func(t *testing.T) {
		h := newSearchHandler(&fakeSearchStore{}, &fakeProfileStore{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/search/events?latitude=40.7128", nil)
		rr := serve(h.SearchEvents, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("malformed coordinate is a 400", func(t *testing.T) {
		h := newSearchHandler(&fakeSearchStore{}, &fakeProfileStore{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/search/events?latitude=abc&longitude=-74", nil)
		rr := serve(h.SearchEvents, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("malformed date is a 400", func(t *testing.T) {
		h := newSearchHandler(&fakeSearchStore{}, &fakeProfileStore{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/search/events?latitude=40.7&longitude=-74&startDate=tomorrow", nil)
		rr := serve(h.SearchEvents, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("inverted date range is a 400", func(t *testing.T) {
		h := newSearchHandler(&fakeSearchStore{}, &fakeProfileStore{})

		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/search/events?latitude=40.7&longitude=-74&startDate=2026-09-13T00:00:00Z&endDate=2026-09-11T00:00:00Z", nil)
		rr := serve(h.SearchEvents, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("authenticated user with stored location needs no coordinates", func(t *testing.T) {
		anchor := geo.Point{Latitude: 40.7128, Longitude: -74.0060}
		users := &fakeProfileStore{users: map[int64]*user.Profile{
			7: {ID: 7, Location: &anchor},
		}}
		h := newSearchHandler(&fakeSearchStore{rows: rows, total: 2}, users)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/search/events", nil)
		req.Header.Set("X-User-ID", "7")
		rr := serve(h.SearchEvents, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestRecommendedEvents(t *testing.T) {
	anchor := geo.Point{Latitude: 40.7128, Longitude: -74.0060}

	t.Run("requires authentication", func(t *testing.T) {
		h := newSearchHandler(&fakeSearchStore{}, &fakeProfileStore{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/search/recommended", nil)
		rr := serve(h.RecommendedEvents, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("no stored location is a 400", func(t *testing.T) {
		users := &fakeProfileStore{users: map[int64]*user.Profile{
			7: {ID: 7, CategoryPreferences: []int64{1}},
		}}
		h := newSearchHandler(&fakeSearchStore{}, users)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/search/recommended", nil)
		req.Header.Set("X-User-ID", "7")
		rr := serve(h.RecommendedEvents, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("no preferences is an empty 200", func(t *testing.T) {
		users := &fakeProfileStore{users: map[int64]*user.Profile{
			7: {ID: 7, Location: &anchor},
		}}
		h := newSearchHandler(&fakeSearchStore{}, users)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/search/recommended", nil)
		req.Header.Set("X-User-ID", "7")
		rr := serve(h.RecommendedEvents, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var result event.SearchResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Empty(t, result.Events)
		assert.Zero(t, result.Pagination.Total)
	})

	t.Run("unknown user is a 404", func(t *testing.T) {
		h := newSearchHandler(&fakeSearchStore{}, &fakeProfileStore{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/search/recommended", nil)
		req.Header.Set("X-User-ID", "42")
		rr := serve(h.RecommendedEvents, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
