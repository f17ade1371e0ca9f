// Package jobs runs periodic maintenance over the booking core.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	expireBatch   = 200
	expireTimeout = 2 * time.Minute
)

// PendingExpirer cancels pending bookings whose date has passed.
type PendingExpirer interface {
	ExpireStale(ctx context.Context, batch int) (int, error)
}

// ExpirePending — одна итерация задачи: отменяет просроченные pending-бронирования
// пачками, пока они не закончатся.
func ExpirePending(ctx context.Context, expirer PendingExpirer) (int, error) {
	total := 0
	for {
		n, err := expirer.ExpireStale(ctx, expireBatch)
		total += n
		if err != nil {
			return total, err
		}
		if n < expireBatch {
			return total, nil
		}
	}
}

type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Logger
}

// NewScheduler регистрирует задачи. Пустое расписание отключает задачу.
func NewScheduler(expireCron string, expirer PendingExpirer, log *logrus.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	s := &Scheduler{cron: c, log: log}

	if expireCron == "" {
		return s, nil
	}
	_, err := c.AddFunc(expireCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), expireTimeout)
		defer cancel()

		entry := log.WithField("job", "expire_pending")
		n, err := ExpirePending(ctx, expirer)
		if err != nil {
			entry.WithError(err).WithField("expired", n).Error("job failed")
			return
		}
		entry.WithField("expired", n).Debug("job finished")
	})
	if err != nil {
		return nil, fmt.Errorf("schedule expire_pending %q: %w", expireCron, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.WithField("jobs", len(s.cron.Entries())).Info("job scheduler started")
}

// Stop waits for running jobs or for ctx, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
