package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storyweave/videopipe/internal/domain/model"
)

// JobCache defines the interface for caching pipeline job snapshots.
// Implementations should handle serialization/deserialization transparently.
type JobCache interface {
	// Get retrieves a job from cache by ID.
	// Returns nil, nil if the job is not found in cache (cache miss).
	Get(ctx context.Context, jobID uuid.UUID) (*model.PipelineJob, error)

	// Set stores a job snapshot in cache with the specified TTL.
	Set(ctx context.Context, job *model.PipelineJob, ttl time.Duration) error

	// Delete removes a job from cache by ID.
	// Returns nil if the job was not in cache.
	Delete(ctx context.Context, jobID uuid.UUID) error
}
