// internal/service/search/engine.go

package search

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"eventscout/internal/domain/event"
	"eventscout/internal/domain/geo"
	"eventscout/internal/domain/user"
)

// Config contains configuration for the search engine
type Config struct {
	DefaultRadiusKm float64
	DefaultPageSize int
	MaxPageSize     int
}

// Params is the plain-data input of one search call. Latitude and
// Longitude are nil when the caller supplied no coordinates; UserID is
// zero for an unauthenticated caller.
type Params struct {
	Latitude    *float64
	Longitude   *float64
	RadiusKm    float64
	CategoryIDs []int64
	StartDate   *time.Time
	EndDate     *time.Time
	Page        int
	PageSize    int
	UserID      int64
}

// Engine composes spatial store queries into the public search
// contract: combined filter, distance order, pagination.
type Engine struct {
	events event.Store
	users  user.Store
	config Config
	logger *logrus.Logger
}

// NewEngine creates a new search engine
func NewEngine(events event.Store, users user.Store, config Config, logger *logrus.Logger) *Engine {
	return &Engine{
		events: events,
		users:  users,
		config: config,
		logger: logger,
	}
}

// Search runs a radius search with optional category and date filters.
// The anchor must be resolvable from the supplied coordinates or the
// authenticated user's stored location; otherwise the call fails with
// ErrLocationRequired rather than returning a silent empty result.
func (e *Engine) Search(ctx context.Context, p Params) (*event.SearchResult, error) {
	q, err := e.normalize(ctx, p)
	if err != nil {
		return nil, err
	}

	rows, total, err := e.events.FindWithinRadius(ctx, q.Anchor, q.RadiusKm, q.Filter, q.Page, q.PageSize)
	if err != nil {
		return nil, fmt.Errorf("error searching events: %w", err)
	}

	return newResult(rows, total, q.Page, q.PageSize), nil
}

// Nearby is Search with the category and date filters unset. Explicit
// coordinates take precedence over the user's stored location.
func (e *Engine) Nearby(ctx context.Context, p Params) (*event.SearchResult, error) {
	p.CategoryIDs = nil
	p.StartDate = nil
	p.EndDate = nil
	return e.Search(ctx, p)
}

// Recommended anchors the search at the user's stored location and
// filters by their stored category preferences. A user without
// preferences gets an explicitly empty result, not an unconstrained
// query: recommending without preferences recommends nothing.
func (e *Engine) Recommended(ctx context.Context, userID int64, radiusKm float64, page, pageSize int) (*event.SearchResult, error) {
	page, pageSize = e.defaultPage(page, pageSize)
	if err := event.ValidatePagination(page, pageSize); err != nil {
		return nil, err
	}

	u, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if u.Location == nil {
		return nil, fmt.Errorf("%w: user %d has no stored location", event.ErrLocationRequired, userID)
	}

	if len(u.CategoryPreferences) == 0 {
		e.logger.WithField("user_id", userID).Debug("no category preferences, returning empty recommendations")
		return newResult(nil, 0, page, pageSize), nil
	}

	if radiusKm <= 0 {
		radiusKm = e.config.DefaultRadiusKm
	}

	rows, total, err := e.events.FindWithinRadius(ctx, *u.Location, radiusKm, event.Filter{
		CategoryIDs: u.CategoryPreferences,
	}, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("error searching recommended events: %w", err)
	}

	return newResult(rows, total, page, pageSize), nil
}

// normalize validates and resolves the raw parameters into a fully
// determined SearchQuery. All validation happens before any store
// query is issued.
func (e *Engine) normalize(ctx context.Context, p Params) (*event.SearchQuery, error) {
	p.Page, p.PageSize = e.defaultPage(p.Page, p.PageSize)
	if err := event.ValidatePagination(p.Page, p.PageSize); err != nil {
		return nil, err
	}

	for _, id := range p.CategoryIDs {
		if id <= 0 {
			return nil, fmt.Errorf("%w: %d", event.ErrInvalidCategory, id)
		}
	}

	if p.StartDate != nil && p.EndDate != nil && p.StartDate.After(*p.EndDate) {
		return nil, fmt.Errorf("%w: start date after end date", event.ErrInvalidDateRange)
	}

	anchor, err := e.resolveAnchor(ctx, p)
	if err != nil {
		return nil, err
	}

	radius := p.RadiusKm
	if radius <= 0 {
		radius = e.config.DefaultRadiusKm
	}

	return &event.SearchQuery{
		Anchor:   anchor,
		RadiusKm: radius,
		Filter: event.Filter{
			CategoryIDs: p.CategoryIDs,
			StartDate:   p.StartDate,
			EndDate:     p.EndDate,
		},
		Page:     p.Page,
		PageSize: p.PageSize,
	}, nil
}

// resolveAnchor picks the anchor point: explicit coordinates first,
// then the authenticated user's stored location. No anchor fails
// closed with ErrLocationRequired.
func (e *Engine) resolveAnchor(ctx context.Context, p Params) (geo.Point, error) {
	if p.Latitude != nil || p.Longitude != nil {
		if p.Latitude == nil || p.Longitude == nil {
			return geo.Point{}, fmt.Errorf("%w: latitude and longitude must be supplied together", geo.ErrInvalidCoordinate)
		}
		return geo.New(*p.Latitude, *p.Longitude)
	}

	if p.UserID != 0 {
		u, err := e.users.GetByID(ctx, p.UserID)
		if err != nil {
			return geo.Point{}, fmt.Errorf("error loading user: %w", err)
		}
		if u.Location != nil {
			return *u.Location, nil
		}
	}

	return geo.Point{}, event.ErrLocationRequired
}

func (e *Engine) defaultPage(page, pageSize int) (int, int) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = e.config.DefaultPageSize
	}
	if e.config.MaxPageSize > 0 && pageSize > e.config.MaxPageSize {
		pageSize = e.config.MaxPageSize
	}
	return page, pageSize
}

func newResult(rows []event.WithDistance, total, page, pageSize int) *event.SearchResult {
	if rows == nil {
		rows = []event.WithDistance{}
	}
	return &event.SearchResult{
		Events:     rows,
		Pagination: event.NewPagination(total, page, pageSize),
	}
}
