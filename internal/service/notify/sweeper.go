// internal/service/notify/sweeper.go

package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"eventscout/internal/domain/notify"
)

// SweeperConfig contains configuration for the reminder sweeper
type SweeperConfig struct {
	Interval      time.Duration
	Batch         int
	SubjectPrefix string
}

// Sweeper promotes due scheduled reminders to immediate publishes.
// Reminders live as rows with a due timestamp, so they survive a
// process restart; the sweeper is the only background worker in the
// process.
type Sweeper struct {
	store   notify.Store
	channel notify.Channel
	config  SweeperConfig
	logger  *logrus.Logger
	now     func() time.Time
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSweeper creates a new reminder sweeper
func NewSweeper(store notify.Store, channel notify.Channel, config SweeperConfig, logger *logrus.Logger) *Sweeper {
	return &Sweeper{
		store:   store,
		channel: channel,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// Start launches the sweep loop.
func (s *Sweeper) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run(ctx)

	return nil
}

// Stop cancels the sweep loop and waits for it to finish or for ctx
// to expire.
func (s *Sweeper) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep claims due reminders and publishes them. Claimed rows are
// marked sent before publish, so a publish failure loses at most that
// delivery: at-most-once, matching the dispatcher's guarantee.
func (s *Sweeper) Sweep(ctx context.Context) {
	due, err := s.store.ClaimDue(ctx, s.now(), s.config.Batch)
	if err != nil {
		s.logger.WithError(err).Error("failed to claim due reminders")
		return
	}

	for _, sc := range due {
		n := &notify.Notification{
			UserID:  sc.UserID,
			EventID: sc.EventID,
			Kind:    sc.Kind,
			Message: sc.Message,
		}
		if err := s.store.Insert(ctx, n); err != nil {
			s.logger.WithError(err).WithField("user_id", sc.UserID).Error("failed to persist reminder")
		}
		if err := publishNotification(s.channel, s.config.SubjectPrefix, n, s.now()); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"user_id":  sc.UserID,
				"event_id": sc.EventID,
				"kind":     sc.Kind,
			}).Error("failed to publish reminder")
		}
	}

	if len(due) > 0 {
		s.logger.WithField("count", len(due)).Info("published due reminders")
	}
}
