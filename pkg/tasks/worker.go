package tasks

import (
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Worker runs the embedded Asynq server that processes refresh tasks
type Worker struct {
	log    logrus.FieldLogger
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewWorker creates an embedded refresh worker
func NewWorker(log logrus.FieldLogger, redisOpt *asynq.RedisClientOpt, handler *Handler, concurrency int) *Worker {
	if concurrency <= 0 {
		concurrency = 4
	}

	server := asynq.NewServer(*redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueRefresh: 1,
		},
	})

	mux := asynq.NewServeMux()
	handler.Register(mux)

	return &Worker{
		log:    log.WithField("component", "task_worker"),
		server: server,
		mux:    mux,
	}
}

// Start launches the worker in the background
func (w *Worker) Start() error {
	w.log.Info("Starting refresh worker")

	return w.server.Start(w.mux)
}

// Stop drains in-flight tasks and shuts the worker down
func (w *Worker) Stop() {
	w.log.Info("Stopping refresh worker")
	w.server.Shutdown()
}
