// Package tasks provides the Asynq task queue for background screen refreshes
package tasks

import (
	"fmt"
	"time"
)

const (
	// TypeScreenRefresh is the task type for screen refreshes
	TypeScreenRefresh = "screen:refresh"
	// QueueRefresh is the queue all refresh tasks run on
	QueueRefresh = "refresh"
)

// RefreshPayload identifies one screen refresh for one tenant
type RefreshPayload struct {
	Screen     string    `json:"screen"`
	Tenant     string    `json:"tenant"`
	RequestID  string    `json:"request_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// UniqueID returns the dedup identity for this refresh. Two enqueues for the
// same screen and tenant collapse while one is still pending or running.
func (p RefreshPayload) UniqueID() string {
	return fmt.Sprintf("%s:%s:%s", TypeScreenRefresh, p.Screen, p.Tenant)
}
