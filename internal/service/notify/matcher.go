// internal/service/notify/matcher.go

package notify

import (
	"context"
	"fmt"

	"eventscout/internal/domain/event"
	"eventscout/internal/domain/user"
)

// Matcher computes which users an event mutation concerns. A user is
// interested in an event when their stored category preferences
// intersect the event's categories, their stored location lies within
// the notification radius of the event, and they are not the event's
// creator.
type Matcher struct {
	users    user.Store
	radiusKm float64
}

// NewMatcher creates a new interest matcher
func NewMatcher(users user.Store, radiusKm float64) *Matcher {
	return &Matcher{
		users:    users,
		radiusKm: radiusKm,
	}
}

// FindInterestedUsers returns the users interested in the event. An
// event without categories can match no preference, so it yields an
// empty set without touching the store. Users lacking a stored
// location are never matched.
func (m *Matcher) FindInterestedUsers(ctx context.Context, ev event.Event) ([]user.Profile, error) {
	if len(ev.CategoryIDs) == 0 {
		return nil, nil
	}

	profiles, err := m.users.FindInterested(ctx, ev.Location, m.radiusKm, ev.CategoryIDs, ev.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("error finding interested users: %w", err)
	}
	return profiles, nil
}

// FindSavedUsers returns the users who favorited the event. Saved
// users are told about updates regardless of their current preferences
// or distance.
func (m *Matcher) FindSavedUsers(ctx context.Context, eventID int64) ([]int64, error) {
	ids, err := m.users.SavedUserIDs(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error finding saved users: %w", err)
	}
	return ids, nil
}
