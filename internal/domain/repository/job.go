package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/storyweave/videopipe/internal/domain/model"
)

// JobArchive defines the interface for durable persistence of terminal
// pipeline job records. The in-memory registry remains the authoritative
// store for active jobs; the archive keeps completed and failed jobs past
// process lifetime.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL).
type JobArchive interface {
	// Save persists a job record, replacing any existing record with the same ID.
	Save(ctx context.Context, job *model.PipelineJob) error

	// GetByID retrieves an archived job by its unique identifier.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.PipelineJob, error)

	// ListByProject retrieves all archived jobs belonging to a project,
	// newest first. Returns an empty slice if none exist.
	ListByProject(ctx context.Context, projectID string) ([]*model.PipelineJob, error)
}
