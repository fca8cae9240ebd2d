package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/nexadash/dcx/pkg/tasks"
)

// scheduledRefresh is one (screen, tenant) pair with its refresh cadence
type scheduledRefresh struct {
	ID       string
	Screen   string
	Tenant   string
	Schedule string
	Interval time.Duration
	nextRun  *time.Time
}

// ticker walks the refresh table once per second and enqueues whatever is due.
// Asynq task id dedup keeps concurrent replicas from double-enqueueing, so no
// leader election is needed.
type ticker struct {
	log       logrus.FieldLogger
	tracker   scheduleTracker
	queue     *tasks.Queue
	refreshes []scheduledRefresh
	mu        sync.Mutex
	done      chan struct{}
}

func newTicker(log logrus.FieldLogger, tracker scheduleTracker, queue *tasks.Queue, refreshes []scheduledRefresh) *ticker {
	return &ticker{
		log:       log.WithField("component", "ticker"),
		tracker:   tracker,
		queue:     queue,
		refreshes: refreshes,
		done:      make(chan struct{}),
	}
}

// Start blocks until the context is canceled or Stop is called
func (t *ticker) Start(ctx context.Context) error {
	t.log.WithField("refreshes", len(t.refreshes)).Info("Starting refresh ticker")

	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.done:
			return nil
		case <-tick.C:
			t.checkSchedules(ctx)
		}
	}
}

func (t *ticker) Stop() {
	close(t.done)
}

func (t *ticker) checkSchedules(ctx context.Context) {
	now := time.Now().UTC()

	for i := range t.refreshes {
		r := &t.refreshes[i]

		t.mu.Lock()
		cached := r.nextRun
		t.mu.Unlock()

		// Fast path: skip the Redis lookup while the refresh is clearly not due
		if cached != nil && now.Before(*cached) {
			continue
		}

		lastRun, err := t.tracker.GetLastRun(ctx, r.ID)
		if err != nil {
			t.log.WithError(err).WithField("refresh_id", r.ID).Warn("Failed to read last run, retrying next tick")
			continue
		}

		nextRun := lastRun.Add(r.Interval)

		t.mu.Lock()
		r.nextRun = &nextRun
		t.mu.Unlock()

		if now.Before(nextRun) {
			continue
		}

		err = t.queue.Enqueue(ctx, tasks.RefreshPayload{
			Screen:     r.Screen,
			Tenant:     r.Tenant,
			EnqueuedAt: now,
		})
		if err != nil {
			t.log.WithError(err).WithField("refresh_id", r.ID).Error("Failed to enqueue refresh")
			continue
		}

		if err := t.tracker.SetLastRun(ctx, r.ID, now); err != nil {
			t.log.WithError(err).WithField("refresh_id", r.ID).Error("Failed to record last run")
		}

		due := now.Add(r.Interval)

		t.mu.Lock()
		r.nextRun = &due
		t.mu.Unlock()
	}
}

// parseScheduleInterval converts a cron spec into a fixed tick interval.
// @every specs parse directly; standard five-field specs use the gap between
// the next two fire times.
func parseScheduleInterval(schedule string) (time.Duration, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	sched, err := parser.Parse(schedule)
	if err != nil {
		return 0, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	if len(schedule) > 7 && schedule[:6] == "@every" {
		return time.ParseDuration(schedule[7:])
	}

	now := time.Now()
	first := sched.Next(now)

	return sched.Next(first).Sub(first), nil
}
