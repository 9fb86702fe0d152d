package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/storyweave/videopipe/internal/domain/model"
)

// mockPipeline provides a configurable mock for Pipeline.
type mockPipeline struct {
	submitFn func(ctx context.Context, projectID string, req model.GenerationRequest) (*model.PipelineJob, error)
	getFn    func(id uuid.UUID) (*model.PipelineJob, error)
	getCount atomic.Int32
}

func (m *mockPipeline) Submit(ctx context.Context, projectID string, req model.GenerationRequest) (*model.PipelineJob, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, projectID, req)
	}
	return nil, nil
}

func (m *mockPipeline) Get(id uuid.UUID) (*model.PipelineJob, error) {
	m.getCount.Add(1)
	if m.getFn != nil {
		return m.getFn(id)
	}
	return nil, nil
}

// mockPipelineService is a mock implementation of PipelineService for testing
// the caching decorator.
type mockPipelineService struct {
	submitFn    func(ctx context.Context, input SubmitInput) (*SubmitOutput, error)
	getJobFn    func(ctx context.Context, jobID uuid.UUID) (*model.PipelineJob, error)
	getJobCount atomic.Int32
}

func (m *mockPipelineService) Submit(ctx context.Context, input SubmitInput) (*SubmitOutput, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, input)
	}
	return nil, nil
}

func (m *mockPipelineService) GetJob(ctx context.Context, jobID uuid.UUID) (*model.PipelineJob, error) {
	m.getJobCount.Add(1)
	if m.getJobFn != nil {
		return m.getJobFn(ctx, jobID)
	}
	return nil, nil
}

// mockJobCache is a map-backed mock implementation of JobCache.
type mockJobCache struct {
	mu       sync.RWMutex
	data     map[uuid.UUID]*model.PipelineJob
	ttls     map[uuid.UUID]time.Duration
	getFn    func(ctx context.Context, jobID uuid.UUID) (*model.PipelineJob, error)
	setFn    func(ctx context.Context, job *model.PipelineJob, ttl time.Duration) error
	deleteFn func(ctx context.Context, jobID uuid.UUID) error
}

func newMockJobCache() *mockJobCache {
	return &mockJobCache{
		data: make(map[uuid.UUID]*model.PipelineJob),
		ttls: make(map[uuid.UUID]time.Duration),
	}
}

func (m *mockJobCache) Get(ctx context.Context, jobID uuid.UUID) (*model.PipelineJob, error) {
	if m.getFn != nil {
		return m.getFn(ctx, jobID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[jobID], nil
}

func (m *mockJobCache) Set(ctx context.Context, job *model.PipelineJob, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, job, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[job.ID] = job
	m.ttls[job.ID] = ttl
	return nil
}

func (m *mockJobCache) Delete(ctx context.Context, jobID uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, jobID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, jobID)
	delete(m.ttls, jobID)
	return nil
}

func (m *mockJobCache) ttlFor(jobID uuid.UUID) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ttls[jobID]
}
