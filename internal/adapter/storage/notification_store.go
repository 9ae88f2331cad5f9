// internal/adapter/storage/notification_store.go

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"eventscout/internal/domain/event"
	"eventscout/internal/domain/notify"
)

// NotificationStore implements notify.Store on PostgreSQL.
type NotificationStore struct {
	db *pgxpool.Pool
}

// NewNotificationStore creates a new notification store
func NewNotificationStore(db *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{
		db: db,
	}
}

// Insert persists an inbox notification.
func (s *NotificationStore) Insert(ctx context.Context, n *notify.Notification) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO notifications (user_id, event_id, kind, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_read, created_at
	`, n.UserID, n.EventID, string(n.Kind), n.Message).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting notification: %w", err)
	}
	return nil
}

// ListForUser returns the user's notifications newest-first with the
// total count.
func (s *NotificationStore) ListForUser(ctx context.Context, userID int64, page, pageSize int) ([]notify.Notification, int, error) {
	if err := event.ValidatePagination(page, pageSize); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, event_id, kind, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying notifications: %w", err)
	}
	defer rows.Close()

	var notifications []notify.Notification
	for rows.Next() {
		var n notify.Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.UserID, &n.EventID, &kind, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("error scanning notification: %w", err)
		}
		n.Kind = notify.Kind(kind)
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating notifications: %w", err)
	}

	var total int
	err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting notifications: %w", err)
	}

	return notifications, total, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationStore) MarkRead(ctx context.Context, id, userID int64) error {
	_, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("error marking notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks all of the user's notifications as read.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID int64) error {
	_, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE user_id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("error marking notifications read: %w", err)
	}
	return nil
}

// Schedule persists a reminder with a future due instant so it
// survives a process restart.
func (s *NotificationStore) Schedule(ctx context.Context, sc *notify.Scheduled) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO scheduled_notifications (user_id, event_id, kind, message, due_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, sc.UserID, sc.EventID, string(sc.Kind), sc.Message, sc.DueAt).Scan(&sc.ID)
	if err != nil {
		return fmt.Errorf("error scheduling notification: %w", err)
	}
	return nil
}

// ClaimDue atomically marks up to limit due reminders as sent and
// returns them. FOR UPDATE SKIP LOCKED keeps concurrent sweepers from
// claiming the same row.
func (s *NotificationStore) ClaimDue(ctx context.Context, now time.Time, limit int) ([]notify.Scheduled, error) {
	rows, err := s.db.Query(ctx, `
		UPDATE scheduled_notifications
		SET sent_at = $1
		WHERE id IN (
			SELECT id FROM scheduled_notifications
			WHERE sent_at IS NULL AND due_at <= $1
			ORDER BY due_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, user_id, event_id, kind, message, due_at
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("error claiming due notifications: %w", err)
	}
	defer rows.Close()

	var due []notify.Scheduled
	for rows.Next() {
		var sc notify.Scheduled
		var kind string
		if err := rows.Scan(&sc.ID, &sc.UserID, &sc.EventID, &kind, &sc.Message, &sc.DueAt); err != nil {
			return nil, fmt.Errorf("error scanning due notification: %w", err)
		}
		sc.Kind = notify.Kind(kind)
		due = append(due, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due notifications: %w", err)
	}

	return due, nil
}
