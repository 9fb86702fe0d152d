package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/storyweave/videopipe/internal/domain/model"
	"github.com/storyweave/videopipe/internal/orchestrator"
)

// SubmitInput contains the input parameters for submitting a pipeline job.
type SubmitInput struct {
	ProjectID string
	Request   model.GenerationRequest
}

// SubmitOutput contains the result of submitting a pipeline job.
type SubmitOutput struct {
	Job *model.PipelineJob
	// EstimatedSeconds is a coarse completion estimate for polling hints.
	EstimatedSeconds int
}

// PipelineService defines the interface for pipeline business logic operations.
type PipelineService interface {
	// Submit starts a new pipeline job and returns its initial snapshot.
	Submit(ctx context.Context, input SubmitInput) (*SubmitOutput, error)

	// GetJob retrieves the current job snapshot by ID.
	// Safe to poll at high frequency - read-only, no side effects.
	GetJob(ctx context.Context, jobID uuid.UUID) (*model.PipelineJob, error)
}

// Pipeline is the orchestrator surface the service layer depends on.
type Pipeline interface {
	Submit(ctx context.Context, projectID string, req model.GenerationRequest) (*model.PipelineJob, error)
	Get(id uuid.UUID) (*model.PipelineJob, error)
}

type pipelineService struct {
	pipeline Pipeline
}

// NewPipelineService creates a new PipelineService instance.
func NewPipelineService(pipeline Pipeline) PipelineService {
	return &pipelineService{pipeline: pipeline}
}

// Submit starts a new pipeline job.
func (s *pipelineService) Submit(ctx context.Context, input SubmitInput) (*SubmitOutput, error) {
	job, err := s.pipeline.Submit(ctx, input.ProjectID, input.Request)
	if err != nil {
		return nil, err
	}

	return &SubmitOutput{
		Job:              job,
		EstimatedSeconds: orchestrator.EstimateSeconds(input.Request),
	}, nil
}

// GetJob retrieves the current job snapshot by ID.
func (s *pipelineService) GetJob(ctx context.Context, jobID uuid.UUID) (*model.PipelineJob, error) {
	return s.pipeline.Get(jobID)
}
