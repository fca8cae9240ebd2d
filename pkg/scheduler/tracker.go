package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Key pattern: dcx:scheduler:refresh:{screen}:{tenant}
const trackerKeyPrefix = "dcx:scheduler:refresh:"

// scheduleTracker persists last-run timestamps for scheduled refreshes
type scheduleTracker interface {
	// GetLastRun returns the last enqueue time for a refresh id, zero time
	// when it has never run
	GetLastRun(ctx context.Context, refreshID string) (time.Time, error)
	// SetLastRun records the enqueue time for a refresh id
	SetLastRun(ctx context.Context, refreshID string, ts time.Time) error
	// DeleteLastRun drops the record for a refresh id
	DeleteLastRun(ctx context.Context, refreshID string) error
}

type redisScheduleTracker struct {
	log   logrus.FieldLogger
	redis *redis.Client
}

func newScheduleTracker(log logrus.FieldLogger, redisClient *redis.Client) scheduleTracker {
	return &redisScheduleTracker{
		log:   log.WithField("component", "schedule_tracker"),
		redis: redisClient,
	}
}

func (r *redisScheduleTracker) GetLastRun(ctx context.Context, refreshID string) (time.Time, error) {
	val, err := r.redis.Get(ctx, trackerKeyPrefix+refreshID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}

		return time.Time{}, fmt.Errorf("failed to get last run for %s: %w", refreshID, err)
	}

	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last run for %s: %w", refreshID, err)
	}

	return time.Unix(unix, 0).UTC(), nil
}

func (r *redisScheduleTracker) SetLastRun(ctx context.Context, refreshID string, ts time.Time) error {
	if err := r.redis.Set(ctx, trackerKeyPrefix+refreshID, strconv.FormatInt(ts.Unix(), 10), 0).Err(); err != nil {
		return fmt.Errorf("failed to set last run for %s: %w", refreshID, err)
	}

	r.log.WithFields(logrus.Fields{
		"refresh_id": refreshID,
		"last_run":   ts,
	}).Debug("Updated last run")

	return nil
}

func (r *redisScheduleTracker) DeleteLastRun(ctx context.Context, refreshID string) error {
	if err := r.redis.Del(ctx, trackerKeyPrefix+refreshID).Err(); err != nil {
		return fmt.Errorf("failed to delete last run for %s: %w", refreshID, err)
	}

	return nil
}

// Verify interface compliance at compile time
var _ scheduleTracker = (*redisScheduleTracker)(nil)
