package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/nexadash/dcx/pkg/observability"
)

const refreshTaskTimeout = 2 * time.Minute

// Queue enqueues screen refresh tasks
type Queue struct {
	log    logrus.FieldLogger
	client *asynq.Client
}

// NewQueue creates a refresh task queue
func NewQueue(log logrus.FieldLogger, redisOpt *asynq.RedisClientOpt) *Queue {
	return &Queue{
		log:    log.WithField("component", "task_queue"),
		client: asynq.NewClient(*redisOpt),
	}
}

// Enqueue submits a refresh task. A task for the same screen and tenant that
// is already pending or running is left alone.
func (q *Queue) Enqueue(ctx context.Context, payload RefreshPayload) error {
	if payload.RequestID == "" {
		payload.RequestID = uuid.NewString()
	}

	if payload.EnqueuedAt.IsZero() {
		payload.EnqueuedAt = time.Now().UTC()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	opts := []asynq.Option{
		asynq.TaskID(payload.UniqueID()),
		asynq.Queue(QueueRefresh),
		asynq.MaxRetry(1),
		asynq.Timeout(refreshTaskTimeout),
	}

	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(TypeScreenRefresh, data), opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			q.log.WithFields(logrus.Fields{
				"screen": payload.Screen,
				"tenant": payload.Tenant,
			}).Debug("Refresh already queued, skipping")

			return nil
		}

		return err
	}

	observability.TasksEnqueued.WithLabelValues(payload.Screen).Inc()

	q.log.WithFields(logrus.Fields{
		"screen":     payload.Screen,
		"tenant":     payload.Tenant,
		"request_id": payload.RequestID,
		"asynq_id":   info.ID,
	}).Debug("Enqueued screen refresh")

	return nil
}

// Close closes the underlying client
func (q *Queue) Close() error {
	return q.client.Close()
}
