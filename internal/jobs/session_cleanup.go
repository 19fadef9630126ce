package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const defaultCleanupSchedule = "@hourly"

type SessionPruner interface {
	DeleteStaleSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionCleanup deletes expired and revoked sessions.
type SessionCleanup struct {
	Sessions SessionPruner
	Logger   *slog.Logger
	Timeout  time.Duration
	Now      func() time.Time
}

func (j *SessionCleanup) Run(ctx context.Context) (int64, error) {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	deleted, err := j.Sessions.DeleteStaleSessions(ctx, now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete stale sessions: %w", err)
	}
	return deleted, nil
}

// StartScheduler registers the cleanup job and starts the cron runner. The
// caller stops it with the returned scheduler's Stop.
func StartScheduler(schedule string, job *SessionCleanup, logger *slog.Logger) (*cron.Cron, error) {
	if schedule == "" {
		schedule = defaultCleanupSchedule
	}

	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(schedule, func() {
		start := time.Now()
		deleted, err := job.Run(context.Background())
		if err != nil {
			logger.Error("session_cleanup_failed", "error", err)
			return
		}
		logger.Info("session_cleanup_completed",
			"deleted", deleted,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule session cleanup %q: %w", schedule, err)
	}

	c.Start()
	logger.Info("session_cleanup_scheduled", "schedule", schedule)
	return c, nil
}
