package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/nexadash/dcx/pkg/querybuilder"
	"github.com/nexadash/dcx/pkg/refresher"
)

// Handler executes refresh tasks against the refresher service
type Handler struct {
	log       logrus.FieldLogger
	refresher refresher.Service
}

// NewHandler creates a refresh task handler
func NewHandler(log logrus.FieldLogger, ref refresher.Service) *Handler {
	return &Handler{
		log:       log.WithField("component", "task_handler"),
		refresher: ref,
	}
}

// Register wires the handler into an Asynq mux
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeScreenRefresh, h.HandleScreenRefresh)
}

// HandleScreenRefresh runs one scheduled refresh with the default time
// filters (current year, all months).
func (h *Handler) HandleScreenRefresh(ctx context.Context, task *asynq.Task) error {
	var payload RefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to decode refresh payload: %w", err)
	}

	log := h.log.WithFields(logrus.Fields{
		"screen":     payload.Screen,
		"tenant":     payload.Tenant,
		"request_id": payload.RequestID,
	})

	start := time.Now()

	if _, err := h.refresher.RefreshScreen(ctx, payload.Tenant, payload.Screen, querybuilder.FilterContext{}); err != nil {
		log.WithError(err).Error("Scheduled refresh failed")
		return err
	}

	log.WithField("duration", time.Since(start)).Info("Scheduled refresh completed")

	return nil
}
