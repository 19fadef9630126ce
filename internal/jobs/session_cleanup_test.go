package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakePruner struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakePruner) DeleteStaleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestSessionCleanupRunUsesCurrentTime(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	pruner := &fakePruner{deleted: 4}
	job := &SessionCleanup{Sessions: pruner, Now: func() time.Time { return fixed }}

	deleted, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if deleted != 4 || !pruner.cutoff.Equal(fixed) {
		t.Fatalf("unexpected result %d at %v", deleted, pruner.cutoff)
	}
}

func TestSessionCleanupRunWrapsError(t *testing.T) {
	cause := errors.New("db down")
	job := &SessionCleanup{Sessions: &fakePruner{err: cause}}
	if _, err := job.Run(context.Background()); !errors.Is(err, cause) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestStartSchedulerRejectsBadSchedule(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := StartScheduler("every tuesday", &SessionCleanup{Sessions: &fakePruner{}}, logger); err == nil {
		t.Fatal("expected invalid cron spec to fail")
	}

	c, err := StartScheduler("", &SessionCleanup{Sessions: &fakePruner{}}, logger)
	if err != nil {
		t.Fatalf("default schedule: %v", err)
	}
	defer c.Stop()
	if len(c.Entries()) != 1 {
		t.Fatalf("expected one entry, got %d", len(c.Entries()))
	}
}
