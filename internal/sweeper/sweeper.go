package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Skotchmaster/basket_shop/pkg/logging"
)

type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

type Locker interface {
	TryAcquire(ctx context.Context) (func(context.Context) error, bool, error)
}

// Runner triggers the expired-basket sweep on a fixed interval. With a
// Locker set, only one replica sweeps per tick.
type Runner struct {
	Svc      Sweeper
	Lock     Locker
	Interval time.Duration
	Now      func() time.Time
	Logger   *slog.Logger
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// RunOnce performs a single sweep. It returns 0 and no error when the lock
// is held by someone else.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	l := r.logger().With("job", "basket.sweep")

	if r.Lock != nil {
		release, ok, err := r.Lock.TryAcquire(ctx)
		if err != nil {
			l.Error("sweep_failed", "reason", "cannot acquire lock", "error", err)
			return 0, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			l.Warn("sweep_skipped", "reason", "lock held by another instance")
			return 0, nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				l.Warn("sweep_lock_release_failed", "error", err)
			}
		}()
	}

	now := r.now()
	l.Info("sweep_started", "before", now)
	removed, err := r.Svc.SweepExpired(logging.IntoContext(ctx, l), now)
	if err != nil {
		l.Error("sweep_failed", "removed", removed, "error", err)
		return removed, err
	}
	l.Info("sweep_finished", "removed", removed)
	return removed, nil
}

// Run sweeps once immediately and then on every tick until ctx is done.
// A zero Interval disables the loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.Interval <= 0 {
		r.logger().Info("sweeper_disabled")
		return nil
	}

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		_, _ = r.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
