// internal/service/notify/dispatcher.go

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"eventscout/internal/domain/event"
	"eventscout/internal/domain/notify"
)

// DispatcherConfig contains configuration for the dispatcher
type DispatcherConfig struct {
	SubjectPrefix string
}

// Dispatcher publishes match notifications onto the async channel and
// schedules time-delayed reminders. It holds no delivery logic; the
// channel's subscribers render and deliver.
type Dispatcher struct {
	matcher *Matcher
	store   notify.Store
	channel notify.Channel
	config  DispatcherConfig
	logger  *logrus.Logger
	now     func() time.Time
}

// NewDispatcher creates a new notification dispatcher
func NewDispatcher(
	matcher *Matcher,
	store notify.Store,
	channel notify.Channel,
	config DispatcherConfig,
	logger *logrus.Logger,
) *Dispatcher {
	return &Dispatcher{
		matcher: matcher,
		store:   store,
		channel: channel,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// payload is the wire shape of one published notification.
type payload struct {
	DeliveryID string      `json:"delivery_id"`
	UserID     int64       `json:"user_id"`
	EventID    int64       `json:"event_id"`
	Kind       notify.Kind `json:"kind"`
	Message    string      `json:"message"`
	SentAt     time.Time   `json:"sent_at"`
}

// NotifyNewEvent publishes one NewEvent notification per interested
// user and schedules day-before and hour-before reminders for the same
// set. Reminder instants already in the past are skipped, never fired
// immediately as a substitute.
func (d *Dispatcher) NotifyNewEvent(ctx context.Context, ev event.Event) error {
	interested, err := d.matcher.FindInterestedUsers(ctx, ev)
	if err != nil {
		return err
	}

	now := d.now()
	dayAt := ev.StartTime.Add(-24 * time.Hour)
	hourAt := ev.StartTime.Add(-time.Hour)

	var publishErr error
	for _, u := range interested {
		n := &notify.Notification{
			UserID:  u.ID,
			EventID: ev.ID,
			Kind:    notify.KindNewEvent,
			Message: fmt.Sprintf("New event %q matching your interests is happening near you.", ev.Title),
		}
		if err := d.store.Insert(ctx, n); err != nil {
			d.logger.WithError(err).WithField("user_id", u.ID).Error("failed to persist notification")
		}
		if err := d.publish(n); err != nil {
			publishErr = err
		}

		if dayAt.After(now) {
			d.schedule(ctx, &notify.Scheduled{
				UserID:  u.ID,
				EventID: ev.ID,
				Kind:    notify.KindReminderDay,
				Message: fmt.Sprintf("Reminder: Event %q is happening tomorrow.", ev.Title),
				DueAt:   dayAt,
			})
		}
		if hourAt.After(now) {
			d.schedule(ctx, &notify.Scheduled{
				UserID:  u.ID,
				EventID: ev.ID,
				Kind:    notify.KindReminderHour,
				Message: fmt.Sprintf("Reminder: Event %q is starting in an hour.", ev.Title),
				DueAt:   hourAt,
			})
		}
	}

	return publishErr
}

// NotifyEventUpdate publishes one EventUpdated notification per user
// who saved the event. Reminders are not recomputed or rescheduled.
func (d *Dispatcher) NotifyEventUpdate(ctx context.Context, ev event.Event) error {
	userIDs, err := d.matcher.FindSavedUsers(ctx, ev.ID)
	if err != nil {
		return err
	}

	var publishErr error
	for _, userID := range userIDs {
		n := &notify.Notification{
			UserID:  userID,
			EventID: ev.ID,
			Kind:    notify.KindEventUpdated,
			Message: fmt.Sprintf("Event %q that you saved has been updated.", ev.Title),
		}
		if err := d.store.Insert(ctx, n); err != nil {
			d.logger.WithError(err).WithField("user_id", userID).Error("failed to persist notification")
		}
		if err := d.publish(n); err != nil {
			publishErr = err
		}
	}

	return publishErr
}

func (d *Dispatcher) schedule(ctx context.Context, sc *notify.Scheduled) {
	if err := d.store.Schedule(ctx, sc); err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":  sc.UserID,
			"event_id": sc.EventID,
			"kind":     sc.Kind,
		}).Error("failed to schedule reminder")
	}
}

func (d *Dispatcher) publish(n *notify.Notification) error {
	return publishNotification(d.channel, d.config.SubjectPrefix, n, d.now())
}

// publishNotification serializes the notification and publishes it on
// the user's subject. A publish failure maps to ErrChannelUnavailable;
// delivery is at-most-once, best-effort.
func publishNotification(ch notify.Channel, prefix string, n *notify.Notification, sentAt time.Time) error {
	data, err := json.Marshal(payload{
		DeliveryID: uuid.New().String(),
		UserID:     n.UserID,
		EventID:    n.EventID,
		Kind:       n.Kind,
		Message:    n.Message,
		SentAt:     sentAt,
	})
	if err != nil {
		return fmt.Errorf("error marshaling notification: %w", err)
	}

	subject := UserSubject(prefix, n.UserID)
	if err := ch.Publish(subject, data); err != nil {
		return fmt.Errorf("%w: %v", notify.ErrChannelUnavailable, err)
	}
	return nil
}

// UserSubject returns the per-user notification subject.
func UserSubject(prefix string, userID int64) string {
	return fmt.Sprintf("%s.user.%d", prefix, userID)
}
