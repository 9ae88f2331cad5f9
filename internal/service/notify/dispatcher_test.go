// internal/service/notify/dispatcher_test.go

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventscout/internal/domain/event"
	"eventscout/internal/domain/notify"
	"eventscout/internal/domain/user"
)

// memNotificationStore records inserts and schedules in memory.
type memNotificationStore struct {
	notify.Store

	inserted  []notify.Notification
	scheduled []notify.Scheduled
	claimable []notify.Scheduled
}

func (m *memNotificationStore) Insert(ctx context.Context, n *notify.Notification) error {
	n.ID = int64(len(m.inserted) + 1)
	m.inserted = append(m.inserted, *n)
	return nil
}

func (m *memNotificationStore) Schedule(ctx context.Context, s *notify.Scheduled) error {
	s.ID = int64(len(m.scheduled) + 1)
	m.scheduled = append(m.scheduled, *s)
	return nil
}

func (m *memNotificationStore) ClaimDue(ctx context.Context, now time.Time, limit int) ([]notify.Scheduled, error) {
	var due, rest []notify.Scheduled
	for _, s := range m.claimable {
		if !s.DueAt.After(now) && len(due) < limit {
			due = append(due, s)
		} else {
			rest = append(rest, s)
		}
	}
	m.claimable = rest
	return due, nil
}

// fakeChannel records published messages and can be made to fail.
type fakeChannel struct {
	published map[string][][]byte
	err       error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{published: make(map[string][][]byte)}
}

func (f *fakeChannel) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.published[subject] = append(f.published[subject], data)
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

var fixedNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func newTestDispatcher(users *fakeUserStore, store *memNotificationStore, ch *fakeChannel) *Dispatcher {
	d := NewDispatcher(NewMatcher(users, 20), store, ch, DispatcherConfig{SubjectPrefix: "notifications"}, testLogger())
	d.now = func() time.Time { return fixedNow }
	return d
}

func TestNotifyNewEvent(t *testing.T) {
	ctx := context.Background()

	ev := event.Event{
		ID:          1,
		Title:       "Jazz in the Park",
		Location:    eventLocation,
		CreatorID:   100,
		CategoryIDs: []int64{1},
		StartTime:   fixedNow.Add(48 * time.Hour),
	}

	interested := []user.Profile{
		{ID: 101, Location: pointPtr(40.7308, -74.0060), CategoryPreferences: []int64{1}},
		{ID: 102, Location: pointPtr(40.7848, -74.0060), CategoryPreferences: []int64{1}},
	}

	t.Run("publishes and persists one notification per interested user", func(t *testing.T) {
		store := &memNotificationStore{}
		ch := newFakeChannel()
		d := newTestDispatcher(&fakeUserStore{profiles: interested}, store, ch)

		require.NoError(t, d.NotifyNewEvent(ctx, ev))

		require.Len(t, store.inserted, 2)
		assert.Equal(t, notify.KindNewEvent, store.inserted[0].Kind)
		assert.Contains(t, store.inserted[0].Message, "Jazz in the Park")

		require.Len(t, ch.published["notifications.user.101"], 1)
		require.Len(t, ch.published["notifications.user.102"], 1)

		var p payload
		require.NoError(t, json.Unmarshal(ch.published["notifications.user.101"][0], &p))
		assert.Equal(t, int64(101), p.UserID)
		assert.Equal(t, int64(1), p.EventID)
		assert.Equal(t, notify.KindNewEvent, p.Kind)
		assert.NotEmpty(t, p.DeliveryID)
		assert.True(t, fixedNow.Equal(p.SentAt))
	})

	t.Run("schedules day and hour reminders per user", func(t *testing.T) {
		store := &memNotificationStore{}
		d := newTestDispatcher(&fakeUserStore{profiles: interested}, store, newFakeChannel())

		require.NoError(t, d.NotifyNewEvent(ctx, ev))

		require.Len(t, store.scheduled, 4)
		byKind := map[notify.Kind][]notify.Scheduled{}
		for _, s := range store.scheduled {
			byKind[s.Kind] = append(byKind[s.Kind], s)
		}
		require.Len(t, byKind[notify.KindReminderDay], 2)
		require.Len(t, byKind[notify.KindReminderHour], 2)
		assert.Equal(t, ev.StartTime.Add(-24*time.Hour), byKind[notify.KindReminderDay][0].DueAt)
		assert.Equal(t, ev.StartTime.Add(-time.Hour), byKind[notify.KindReminderHour][0].DueAt)
	})

	t.Run("skips reminder instants already in the past", func(t *testing.T) {
		store := &memNotificationStore{}
		d := newTestDispatcher(&fakeUserStore{profiles: interested}, store, newFakeChannel())

		soon := ev
		soon.StartTime = fixedNow.Add(12 * time.Hour) // day-before instant already passed
		require.NoError(t, d.NotifyNewEvent(ctx, soon))

		for _, s := range store.scheduled {
			assert.Equal(t, notify.KindReminderHour, s.Kind)
		}
		assert.Len(t, store.scheduled, 2)
	})

	t.Run("skips all reminders for an imminent event", func(t *testing.T) {
		store := &memNotificationStore{}
		d := newTestDispatcher(&fakeUserStore{profiles: interested}, store, newFakeChannel())

		imminent := ev
		imminent.StartTime = fixedNow.Add(30 * time.Minute)
		require.NoError(t, d.NotifyNewEvent(ctx, imminent))

		assert.Empty(t, store.scheduled)
		// Immediate notifications still go out.
		assert.Len(t, store.inserted, 2)
	})

	t.Run("no interested users publishes nothing", func(t *testing.T) {
		store := &memNotificationStore{}
		ch := newFakeChannel()
		d := newTestDispatcher(&fakeUserStore{}, store, ch)

		require.NoError(t, d.NotifyNewEvent(ctx, ev))
		assert.Empty(t, store.inserted)
		assert.Empty(t, ch.published)
	})

	t.Run("publish failure maps to ErrChannelUnavailable but still persists", func(t *testing.T) {
		store := &memNotificationStore{}
		ch := newFakeChannel()
		ch.err = errors.New("nats: connection closed")
		d := newTestDispatcher(&fakeUserStore{profiles: interested}, store, ch)

		err := d.NotifyNewEvent(ctx, ev)
		assert.ErrorIs(t, err, notify.ErrChannelUnavailable)
		assert.Len(t, store.inserted, 2)
		assert.Len(t, store.scheduled, 4)
	})
}

func TestNotifyEventUpdate(t *testing.T) {
	ctx := context.Background()

	ev := event.Event{ID: 1, Title: "Jazz in the Park"}

	t.Run("notifies savers only", func(t *testing.T) {
		store := &memNotificationStore{}
		ch := newFakeChannel()
		users := &fakeUserStore{saved: map[int64][]int64{1: {101, 104}}}
		d := newTestDispatcher(users, store, ch)

		require.NoError(t, d.NotifyEventUpdate(ctx, ev))

		require.Len(t, store.inserted, 2)
		assert.Equal(t, notify.KindEventUpdated, store.inserted[0].Kind)
		assert.Contains(t, store.inserted[0].Message, "Jazz in the Park")
		assert.Len(t, ch.published["notifications.user.101"], 1)
		assert.Len(t, ch.published["notifications.user.104"], 1)
		assert.Empty(t, store.scheduled)
	})

	t.Run("no savers publishes nothing", func(t *testing.T) {
		store := &memNotificationStore{}
		ch := newFakeChannel()
		d := newTestDispatcher(&fakeUserStore{}, store, ch)

		require.NoError(t, d.NotifyEventUpdate(ctx, ev))
		assert.Empty(t, ch.published)
	})
}

func TestUserSubject(t *testing.T) {
	assert.Equal(t, "notifications.user.42", UserSubject("notifications", 42))
}
