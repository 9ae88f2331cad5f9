// internal/domain/event/model.go

package event

import (
	"context"
	"time"

	"eventscout/internal/domain/geo"
)

// Event is a geotagged event created by a user. Category links are a
// many-to-many relation materialized at query time, never embedded in
// the row itself.
type Event struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    geo.Point  `json:"location"`
	Address     string     `json:"address"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	CreatorID   int64      `json:"creator_id"`
	CreatorName string     `json:"creator_name,omitempty"`
	CategoryIDs []int64    `json:"category_ids"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// WithDistance is an event annotated with its distance from a query
// anchor. The distance is computed at query time and never stored.
type WithDistance struct {
	Event
	DistanceKm float64 `json:"distance_km"`
}

// Filter holds the optional predicates of a spatial search. All set
// fields combine with AND semantics; the category filter itself matches
// an event that has at least one of the requested categories.
type Filter struct {
	CategoryIDs []int64
	StartDate   *time.Time
	EndDate     *time.Time
}

// SearchQuery is the fully resolved input of one search call. It is a
// transient value, never persisted.
type SearchQuery struct {
	Anchor   geo.Point
	RadiusKm float64
	Filter   Filter
	Page     int
	PageSize int
}

// Pagination describes the page window of a result set.
type Pagination struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Pages    int `json:"pages"`
}

// SearchResult is a distance-ordered page of events plus pagination
// metadata. Total always reflects the same predicate as the rows.
type SearchResult struct {
	Events     []WithDistance `json:"events"`
	Pagination Pagination     `json:"pagination"`
}

// NewPagination computes the page window for a total row count.
func NewPagination(total, page, pageSize int) Pagination {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return Pagination{Total: total, Page: page, PageSize: pageSize, Pages: pages}
}

// Store is the persistence contract for events. FindWithinRadius
// returns rows ordered ascending by distance from the anchor together
// with the total count for the identical predicate; List orders
// newest-first (created_at DESC) since it has no anchor.
type Store interface {
	Create(ctx context.Context, e *Event) error
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*Event, error)
	List(ctx context.Context, page, pageSize int) ([]Event, int, error)

	FindWithinRadius(ctx context.Context, anchor geo.Point, radiusKm float64, f Filter, page, pageSize int) ([]WithDistance, int, error)

	SaveFavorite(ctx context.Context, userID, eventID int64) error
	RemoveFavorite(ctx context.Context, userID, eventID int64) error
	ListFavorites(ctx context.Context, userID int64, page, pageSize int) ([]Event, int, error)
}
