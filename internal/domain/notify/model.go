// internal/domain/notify/model.go

package notify

import (
	"context"
	"errors"
	"time"

	"eventscout/internal/domain/event"
)

// Kind classifies a notification.
type Kind string

const (
	KindNewEvent     Kind = "new_event"
	KindEventUpdated Kind = "event_updated"
	KindReminderDay  Kind = "reminder_day"
	KindReminderHour Kind = "reminder_hour"
)

// ErrChannelUnavailable is returned when the publish channel cannot be
// reached. The triggering event write must still succeed; delivery is
// at-most-once, best-effort.
var ErrChannelUnavailable = errors.New("notification channel unavailable")

// Notification is a delivered (or deliverable) message for one user's
// inbox.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	EventID   int64     `json:"event_id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Scheduled is a notification with a future due instant. It is
// persisted so reminders survive a process restart; a sweeper promotes
// due rows to immediate publishes.
type Scheduled struct {
	ID      int64     `json:"id"`
	UserID  int64     `json:"user_id"`
	EventID int64     `json:"event_id"`
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	DueAt   time.Time `json:"due_at"`
}

// Channel is the async publish primitive. *nats.Conn satisfies it.
type Channel interface {
	Publish(subject string, data []byte) error
}

// Dispatcher fans out notifications for event mutations. Callers
// invoke it only after the event write has committed; a dispatch
// failure never rolls the write back.
type Dispatcher interface {
	NotifyNewEvent(ctx context.Context, ev event.Event) error
	NotifyEventUpdate(ctx context.Context, ev event.Event) error
}

// Store is the persistence contract for inbox rows and scheduled
// reminders.
type Store interface {
	Insert(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, userID int64, page, pageSize int) ([]Notification, int, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) error

	Schedule(ctx context.Context, s *Scheduled) error

	// ClaimDue atomically marks up to limit due reminders as sent and
	// returns them. Concurrent sweepers never claim the same row.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]Scheduled, error)
}
