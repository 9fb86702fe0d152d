package model

import (
	"errors"
	"testing"
)

func validRequest() GenerationRequest {
	return GenerationRequest{
		Provider:    "runway",
		Prompt:      "a lighthouse in a storm",
		Duration:    5,
		AspectRatio: "16:9",
	}
}

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"PENDING is valid", StatusPending, true},
		{"DOWNLOADING is valid", StatusDownloading, true},
		{"TRANSCODING is valid", StatusTranscoding, true},
		{"UPLOADING is valid", StatusUploading, true},
		{"COMPLETED is valid", StatusCompleted, true},
		{"FAILED is valid", StatusFailed, true},
		{"empty string is invalid", Status(""), false},
		{"unknown status is invalid", Status("UNKNOWN"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.want {
				t.Errorf("Status.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		current Status
		next    Status
		want    bool
	}{
		// Valid transitions along the pipeline
		{"PENDING -> DOWNLOADING", StatusPending, StatusDownloading, true},
		{"DOWNLOADING -> TRANSCODING", StatusDownloading, StatusTranscoding, true},
		{"TRANSCODING -> UPLOADING", StatusTranscoding, StatusUploading, true},
		{"UPLOADING -> COMPLETED", StatusUploading, StatusCompleted, true},
		{"TRANSCODING -> COMPLETED (upload disabled)", StatusTranscoding, StatusCompleted, true},

		// Failure exits from non-terminal states
		{"PENDING -> FAILED", StatusPending, StatusFailed, true},
		{"DOWNLOADING -> FAILED", StatusDownloading, StatusFailed, true},
		{"TRANSCODING -> FAILED", StatusTranscoding, StatusFailed, true},
		{"UPLOADING -> FAILED", StatusUploading, StatusFailed, true},

		// Skips and reversals
		{"PENDING -> TRANSCODING (skip)", StatusPending, StatusTranscoding, false},
		{"PENDING -> COMPLETED (skip)", StatusPending, StatusCompleted, false},
		{"TRANSCODING -> DOWNLOADING (reverse)", StatusTranscoding, StatusDownloading, false},
		{"UPLOADING -> TRANSCODING (reverse)", StatusUploading, StatusTranscoding, false},

		// Terminal states admit nothing
		{"COMPLETED -> UPLOADING", StatusCompleted, StatusUploading, false},
		{"COMPLETED -> FAILED", StatusCompleted, StatusFailed, false},
		{"FAILED -> PENDING", StatusFailed, StatusPending, false},

		// Self transitions
		{"PENDING -> PENDING", StatusPending, StatusPending, false},
		{"DOWNLOADING -> DOWNLOADING", StatusDownloading, StatusDownloading, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.current.CanTransitionTo(tt.next); got != tt.want {
				t.Errorf("Status.CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewPipelineJob(t *testing.T) {
	tests := []struct {
		name      string
		projectID string
		req       GenerationRequest
		wantErr   error
	}{
		{
			name:      "valid job creation",
			projectID: "project-1",
			req:       validRequest(),
			wantErr:   nil,
		},
		{
			name:      "empty project ID",
			projectID: "",
			req:       validRequest(),
			wantErr:   ErrEmptyProjectID,
		},
		{
			name:      "empty prompt",
			projectID: "project-1",
			req:       GenerationRequest{Provider: "runway", Duration: 5},
			wantErr:   ErrEmptyPrompt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := NewPipelineJob(tt.projectID, tt.req)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewPipelineJob() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("NewPipelineJob() unexpected error: %v", err)
			}
			if job.Status != StatusPending {
				t.Errorf("new job status = %v, want %v", job.Status, StatusPending)
			}
			if job.Progress != 0 {
				t.Errorf("new job progress = %d, want 0", job.Progress)
			}
			if job.StartedAt.IsZero() {
				t.Error("new job StartedAt should be set")
			}
			if job.EndedAt != nil {
				t.Error("new job EndedAt should be nil")
			}
			if job.Meta.Provider != tt.req.Provider || job.Meta.Prompt != tt.req.Prompt {
				t.Error("job metadata snapshot does not match request")
			}
		})
	}
}

func TestPipelineJob_SetProgress(t *testing.T) {
	job, err := NewPipelineJob("project-1", validRequest())
	if err != nil {
		t.Fatalf("NewPipelineJob() error: %v", err)
	}

	t.Run("progress advances", func(t *testing.T) {
		for _, p := range []int{10, 25, 50, 80} {
			if err := job.SetProgress(p); err != nil {
				t.Fatalf("SetProgress(%d) error: %v", p, err)
			}
		}
		if job.Progress != 80 {
			t.Errorf("progress = %d, want 80", job.Progress)
		}
	})

	t.Run("progress never decreases", func(t *testing.T) {
		if err := job.SetProgress(50); !errors.Is(err, ErrProgressDecreased) {
			t.Errorf("SetProgress(50) error = %v, want %v", err, ErrProgressDecreased)
		}
		if job.Progress != 80 {
			t.Errorf("progress changed on rejected update: %d", job.Progress)
		}
	})

	t.Run("equal progress is allowed", func(t *testing.T) {
		if err := job.SetProgress(80); err != nil {
			t.Errorf("SetProgress(80) error: %v", err)
		}
	})

	t.Run("out of range rejected", func(t *testing.T) {
		if err := job.SetProgress(101); !errors.Is(err, ErrInvalidProgress) {
			t.Errorf("SetProgress(101) error = %v, want %v", err, ErrInvalidProgress)
		}
		if err := job.SetProgress(-1); !errors.Is(err, ErrInvalidProgress) {
			t.Errorf("SetProgress(-1) error = %v, want %v", err, ErrInvalidProgress)
		}
	})
}

func TestPipelineJob_Complete(t *testing.T) {
	job, err := NewPipelineJob("project-1", validRequest())
	if err != nil {
		t.Fatalf("NewPipelineJob() error: %v", err)
	}

	for _, s := range []Status{StatusDownloading, StatusTranscoding, StatusUploading} {
		if err := job.TransitionTo(s); err != nil {
			t.Fatalf("TransitionTo(%v) error: %v", s, err)
		}
	}

	if err := job.Complete(); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if job.Status != StatusCompleted {
		t.Errorf("status = %v, want %v", job.Status, StatusCompleted)
	}
	if job.Progress != 100 {
		t.Errorf("progress = %d, want 100", job.Progress)
	}
	if job.EndedAt == nil {
		t.Error("EndedAt should be set on completion")
	}
}

func TestPipelineJob_Fail(t *testing.T) {
	job, err := NewPipelineJob("project-1", validRequest())
	if err != nil {
		t.Fatalf("NewPipelineJob() error: %v", err)
	}
	if err := job.TransitionTo(StatusDownloading); err != nil {
		t.Fatalf("TransitionTo error: %v", err)
	}
	if err := job.SetProgress(25); err != nil {
		t.Fatalf("SetProgress error: %v", err)
	}

	if err := job.Fail("provider rejected request"); err != nil {
		t.Fatalf("Fail() error: %v", err)
	}
	if job.Status != StatusFailed {
		t.Errorf("status = %v, want %v", job.Status, StatusFailed)
	}
	if job.Error != "provider rejected request" {
		t.Errorf("error message = %q", job.Error)
	}
	if job.Progress != 25 {
		t.Errorf("progress changed on failure: %d, want 25", job.Progress)
	}
	if job.EndedAt == nil {
		t.Error("EndedAt should be set on failure")
	}

	// A failed job is never resurrected.
	if err := job.TransitionTo(StatusDownloading); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("transition out of FAILED error = %v, want %v", err, ErrInvalidTransition)
	}
}

func TestPipelineJob_Clone(t *testing.T) {
	job, err := NewPipelineJob("project-1", validRequest())
	if err != nil {
		t.Fatalf("NewPipelineJob() error: %v", err)
	}

	clone := job.Clone()
	clone.Status = StatusFailed
	clone.Progress = 99
	clone.Meta.Prompt = "mutated"

	if job.Status != StatusPending || job.Progress != 0 {
		t.Error("mutating the clone changed the original job")
	}
	if job.Meta.Prompt != "a lighthouse in a storm" {
		t.Error("mutating the clone changed the original metadata")
	}
}

func TestGenerationResult_Pending(t *testing.T) {
	tests := []struct {
		name   string
		result GenerationResult
		want   bool
	}{
		{"async accepted", GenerationResult{Success: true, JobID: "op-1"}, true},
		{"sync completed", GenerationResult{Success: true, VideoURL: "https://cdn/video.mp4"}, false},
		{"async completed", GenerationResult{Success: true, JobID: "op-1", VideoURL: "https://cdn/video.mp4"}, false},
		{"failed", GenerationResult{Success: false, Error: "boom"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Pending(); got != tt.want {
				t.Errorf("Pending() = %v, want %v", got, tt.want)
			}
		})
	}
}
