package orchestrator

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storyweave/videopipe/internal/domain/model"
	"github.com/storyweave/videopipe/internal/domain/repository"
)

// JobRegistry is the in-memory store for pipeline jobs. It is the only
// mutable state shared across jobs; all access goes through the mutex.
// Reads hand out clones so callers can never race with the running pipeline.
type JobRegistry struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*model.PipelineJob
}

// NewJobRegistry creates an empty job registry.
func NewJobRegistry() *JobRegistry {
	return &JobRegistry{
		jobs: make(map[uuid.UUID]*model.PipelineJob),
	}
}

// Register adds a new job to the registry.
// Returns ErrDuplicateJob if a job with the same ID already exists.
func (r *JobRegistry) Register(job *model.PipelineJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return repository.ErrDuplicateJob
	}
	r.jobs[job.ID] = job.Clone()
	return nil
}

// Get returns a snapshot of the job with the given ID.
// Returns ErrJobNotFound if no such job exists.
func (r *JobRegistry) Get(id uuid.UUID) (*model.PipelineJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, exists := r.jobs[id]
	if !exists {
		return nil, repository.ErrJobNotFound
	}
	return job.Clone(), nil
}

// Update applies fn to the stored job under the write lock and returns a
// snapshot of the result. The callback mutates the registry's copy directly,
// so state transitions and field updates are atomic with respect to readers.
func (r *JobRegistry) Update(id uuid.UUID, fn func(job *model.PipelineJob) error) (*model.PipelineJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, exists := r.jobs[id]
	if !exists {
		return nil, repository.ErrJobNotFound
	}
	if err := fn(job); err != nil {
		return nil, err
	}
	return job.Clone(), nil
}

// Len returns the number of jobs currently held.
func (r *JobRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// CleanupOlderThan removes terminal jobs whose end time is before the cutoff
// and returns how many were removed. Active jobs are never touched.
func (r *JobRegistry) CleanupOlderThan(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, job := range r.jobs {
		if !job.IsTerminal() {
			continue
		}
		if job.EndedAt != nil && job.EndedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed
}
