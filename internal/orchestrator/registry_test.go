package orchestrator

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/storyweave/videopipe/internal/domain/model"
	"github.com/storyweave/videopipe/internal/domain/repository"
)

func newTestJob(t *testing.T) *model.PipelineJob {
	t.Helper()
	job, err := model.NewPipelineJob("project-1", model.GenerationRequest{
		Provider:    "runway",
		Prompt:      "a fox running through snow",
		Duration:    5,
		AspectRatio: "16:9",
	})
	if err != nil {
		t.Fatalf("NewPipelineJob failed: %v", err)
	}
	return job
}

func TestJobRegistry_RegisterAndGet(t *testing.T) {
	reg := NewJobRegistry()
	job := newTestJob(t)

	if err := reg.Register(job); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := reg.Get(job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != job.ID {
		t.Errorf("ID = %v, want %v", got.ID, job.ID)
	}
	if got.Status != model.StatusPending {
		t.Errorf("Status = %v, want %v", got.Status, model.StatusPending)
	}
}

func TestJobRegistry_Register_Duplicate(t *testing.T) {
	reg := NewJobRegistry()
	job := newTestJob(t)

	if err := reg.Register(job); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := reg.Register(job); !errors.Is(err, repository.ErrDuplicateJob) {
		t.Errorf("Register() error = %v, want %v", err, repository.ErrDuplicateJob)
	}
}

func TestJobRegistry_Get_NotFound(t *testing.T) {
	reg := NewJobRegistry()

	_, err := reg.Get(uuid.New())
	if !errors.Is(err, repository.ErrJobNotFound) {
		t.Errorf("Get() error = %v, want %v", err, repository.ErrJobNotFound)
	}
}

func TestJobRegistry_Get_ReturnsSnapshot(t *testing.T) {
	reg := NewJobRegistry()
	job := newTestJob(t)
	if err := reg.Register(job); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	first, err := reg.Get(job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	// Mutating the snapshot must not affect the stored job.
	first.Status = model.StatusFailed
	first.Progress = 99

	second, err := reg.Get(job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if second.Status != model.StatusPending {
		t.Errorf("Status = %v, want %v", second.Status, model.StatusPending)
	}
	if second.Progress != 0 {
		t.Errorf("Progress = %v, want 0", second.Progress)
	}
}

func TestJobRegistry_Update(t *testing.T) {
	reg := NewJobRegistry()
	job := newTestJob(t)
	if err := reg.Register(job); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	snapshot, err := reg.Update(job.ID, func(j *model.PipelineJob) error {
		if err := j.TransitionTo(model.StatusDownloading); err != nil {
			return err
		}
		return j.SetProgress(10)
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if snapshot.Status != model.StatusDownloading {
		t.Errorf("snapshot Status = %v, want %v", snapshot.Status, model.StatusDownloading)
	}

	got, err := reg.Get(job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != model.StatusDownloading || got.Progress != 10 {
		t.Errorf("stored job = %v/%d, want DOWNLOADING/10", got.Status, got.Progress)
	}
}

func TestJobRegistry_Update_CallbackError(t *testing.T) {
	reg := NewJobRegistry()
	job := newTestJob(t)
	if err := reg.Register(job); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err := reg.Update(job.ID, func(j *model.PipelineJob) error {
		return j.TransitionTo(model.StatusCompleted) // invalid from PENDING
	})
	if !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("Update() error = %v, want %v", err, model.ErrInvalidTransition)
	}
}

func TestJobRegistry_CleanupOlderThan(t *testing.T) {
	reg := NewJobRegistry()

	old := newTestJob(t)
	ended := time.Now().Add(-2 * time.Hour)
	old.Status = model.StatusCompleted
	old.EndedAt = &ended

	fresh := newTestJob(t)
	freshEnd := time.Now()
	fresh.Status = model.StatusFailed
	fresh.EndedAt = &freshEnd

	active := newTestJob(t)

	for _, j := range []*model.PipelineJob{old, fresh, active} {
		if err := reg.Register(j); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	removed := reg.CleanupOlderThan(time.Hour)
	if removed != 1 {
		t.Errorf("CleanupOlderThan() = %d, want 1", removed)
	}

	if _, err := reg.Get(old.ID); !errors.Is(err, repository.ErrJobNotFound) {
		t.Errorf("old job should be removed, got err = %v", err)
	}
	if _, err := reg.Get(fresh.ID); err != nil {
		t.Errorf("fresh terminal job should remain, got err = %v", err)
	}
	if _, err := reg.Get(active.ID); err != nil {
		t.Errorf("active job should remain, got err = %v", err)
	}
	if reg.Len() != 2 {
		t.Errorf("Len() = %d, want 2", reg.Len())
	}
}
