package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// NextRun returns the first hour:minute wall-clock time strictly after now,
// in now's location.
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Daily runs job once a day at hour:minute until ctx is cancelled. Runs never
// overlap; a slow job simply delays the next computation.
func Daily(ctx context.Context, name string, hour, minute int, job func(ctx context.Context)) {
	for {
		next := NextRun(time.Now(), hour, minute)
		slog.Info("job scheduled", "job", name, "next_run", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		start := time.Now()
		job(ctx)
		slog.Info("job finished", "job", name, "duration", time.Since(start))
	}
}
