package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the processing state of a pipeline job.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusDownloading Status = "DOWNLOADING"
	StatusTranscoding Status = "TRANSCODING"
	StatusUploading   Status = "UPLOADING"
	StatusCompleted   Status = "COMPLETED"
	StatusFailed      Status = "FAILED"
)

// Valid status transitions:
// PENDING -> DOWNLOADING -> TRANSCODING -> UPLOADING -> COMPLETED
// Any non-terminal state may transition to FAILED.
// TRANSCODING may transition directly to COMPLETED when uploading is disabled.
var validTransitions = map[Status][]Status{
	StatusPending:     {StatusDownloading, StatusFailed},
	StatusDownloading: {StatusTranscoding, StatusFailed},
	StatusTranscoding: {StatusUploading, StatusCompleted, StatusFailed},
	StatusUploading:   {StatusCompleted, StatusFailed},
	StatusCompleted:   {},
	StatusFailed:      {},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusDownloading, StatusTranscoding, StatusUploading, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s Status) CanTransitionTo(next Status) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, status := range allowed {
		if status == next {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// JobMeta is the immutable metadata snapshot copied from the originating
// GenerationRequest when the job is created.
type JobMeta struct {
	Provider    string
	Prompt      string
	Duration    int
	AspectRatio string
}

// PipelineJob tracks one generation+processing request through the pipeline.
// Only Status, Progress, the provenance paths, Error and EndedAt mutate after
// creation; Meta never changes.
type PipelineJob struct {
	ID        uuid.UUID
	ProjectID string
	Status    Status
	Progress  int
	Meta      JobMeta

	// Provenance, filled in as stages complete.
	VideoURL    string // remote URL returned by the provider
	LocalPath   string // downloaded source file
	OutputDir   string // local transcode output tree
	StoragePath string // object storage prefix
	PlaylistURL string // public master playlist URL
	PosterURL   string // public poster URL

	Error     string
	StartedAt time.Time
	EndedAt   *time.Time
}

var (
	ErrEmptyProjectID    = errors.New("project ID cannot be empty")
	ErrEmptyPrompt       = errors.New("prompt cannot be empty")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrProgressDecreased = errors.New("progress cannot decrease")
	ErrInvalidProgress   = errors.New("progress must be between 0 and 100")
)

// NewPipelineJob creates a new job in PENDING state with progress 0.
func NewPipelineJob(projectID string, req GenerationRequest) (*PipelineJob, error) {
	if projectID == "" {
		return nil, ErrEmptyProjectID
	}
	if req.Prompt == "" {
		return nil, ErrEmptyPrompt
	}

	return &PipelineJob{
		ID:        uuid.New(),
		ProjectID: projectID,
		Status:    StatusPending,
		Progress:  0,
		Meta: JobMeta{
			Provider:    req.Provider,
			Prompt:      req.Prompt,
			Duration:    req.Duration,
			AspectRatio: req.AspectRatio,
		},
		StartedAt: time.Now(),
	}, nil
}

// TransitionTo attempts to advance the job along the pipeline.
// Returns error if the transition is not allowed.
func (j *PipelineJob) TransitionTo(next Status) error {
	if !next.IsValid() {
		return ErrInvalidTransition
	}
	if !j.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	j.Status = next
	if next.IsTerminal() {
		now := time.Now()
		j.EndedAt = &now
	}
	return nil
}

// SetProgress updates the progress percentage.
// Progress is monotonically non-decreasing while the job is active.
func (j *PipelineJob) SetProgress(progress int) error {
	if progress < 0 || progress > 100 {
		return ErrInvalidProgress
	}
	if progress < j.Progress {
		return ErrProgressDecreased
	}
	j.Progress = progress
	return nil
}

// Complete marks the job COMPLETED with progress 100.
func (j *PipelineJob) Complete() error {
	if err := j.TransitionTo(StatusCompleted); err != nil {
		return err
	}
	j.Progress = 100
	return nil
}

// Fail marks the job FAILED with the given message. Progress is left
// unchanged so callers can see how far the job got.
func (j *PipelineJob) Fail(msg string) error {
	if err := j.TransitionTo(StatusFailed); err != nil {
		return err
	}
	j.Error = msg
	return nil
}

// IsTerminal returns true if the job reached COMPLETED or FAILED.
func (j *PipelineJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// Clone returns a copy of the job for handing out as a snapshot.
func (j *PipelineJob) Clone() *PipelineJob {
	clone := *j
	if j.EndedAt != nil {
		ended := *j.EndedAt
		clone.EndedAt = &ended
	}
	return &clone
}
