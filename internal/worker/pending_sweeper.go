package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// PendingExpirer drops pending bookings whose payment window has closed.
type PendingExpirer interface {
	ExpirePending(ctx context.Context, now time.Time) (int, error)
}

type PendingSweeper struct {
	bookings PendingExpirer
	interval time.Duration
	now      func() time.Time
}

func NewPendingSweeper(bookings PendingExpirer, interval time.Duration) *PendingSweeper {
	return &PendingSweeper{
		bookings: bookings,
		interval: interval,
		now:      time.Now,
	}
}

// Start blocks until ctx is cancelled, sweeping once per interval.
func (w *PendingSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithField("interval", w.interval.String()).Info("pending sweeper started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("pending sweeper stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs a single pass and returns how many bookings were expired.
func (w *PendingSweeper) Sweep(ctx context.Context) int {
	n, err := w.bookings.ExpirePending(ctx, w.now())
	if err != nil {
		if ctx.Err() != nil {
			logrus.Info("pending sweep interrupted by shutdown")
			return n
		}
		logrus.WithError(err).Errorf("pending sweep failed after %d expirations", n)
		return n
	}
	if n > 0 {
		logrus.Infof("expired %d pending bookings", n)
	}
	return n
}
