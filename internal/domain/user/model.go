// internal/domain/user/model.go

package user

import (
	"context"
	"errors"
	"time"

	"eventscout/internal/domain/geo"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// Profile is the matching-relevant view of a user. Location is
// optional; a user without a stored location can never be matched by
// proximity and cannot anchor a search.
type Profile struct {
	ID                  int64      `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	Location            *geo.Point `json:"location,omitempty"`
	CategoryPreferences []int64    `json:"category_preferences"`
	PreferredLanguage   string     `json:"preferred_language"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Store is the persistence contract for user profiles and their
// stored interests.
type Store interface {
	GetByID(ctx context.Context, id int64) (*Profile, error)

	// CategoryPreferences returns the user's stored category ids.
	CategoryPreferences(ctx context.Context, userID int64) ([]int64, error)

	// SetCategoryPreferences replaces the user's stored category ids
	// transactionally.
	SetCategoryPreferences(ctx context.Context, userID int64, categoryIDs []int64) error

	// UpdateLocation stores the user's home location.
	UpdateLocation(ctx context.Context, userID int64, p geo.Point) error

	// FindInterested returns users whose category preferences
	// intersect categoryIDs, whose stored location lies within
	// radiusKm of anchor, excluding excludeID. Users without a stored
	// location are never returned.
	FindInterested(ctx context.Context, anchor geo.Point, radiusKm float64, categoryIDs []int64, excludeID int64) ([]Profile, error)

	// SavedUserIDs returns the ids of users who favorited the event,
	// independent of preference or distance.
	SavedUserIDs(ctx context.Context, eventID int64) ([]int64, error)
}
