package repository

import (
	"context"
	"time"
)

// JobEvent is published on every pipeline job status transition so external
// consumers can follow job lifecycles without polling the status endpoint.
type JobEvent struct {
	JobID       string    `json:"job_id"`
	ProjectID   string    `json:"project_id"`
	Provider    string    `json:"provider"`
	Status      string    `json:"status"`
	Progress    int       `json:"progress"`
	Error       string    `json:"error,omitempty"`
	PlaylistURL string    `json:"playlist_url,omitempty"`
	PosterURL   string    `json:"poster_url,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventBus defines the interface for job lifecycle event messaging.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type EventBus interface {
	// PublishJobEvent sends a job lifecycle event to the queue.
	// Used by the orchestrator on every status transition.
	PublishJobEvent(ctx context.Context, event JobEvent) error

	// ConsumeJobEvents starts consuming job lifecycle events from the queue.
	// The handler function is called for each received event.
	// Used by the archiver worker.
	ConsumeJobEvents(ctx context.Context, handler func(event JobEvent) error) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
