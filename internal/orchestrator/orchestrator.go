// Package orchestrator owns pipeline jobs end-to-end: provider generation,
// source download, adaptive transcoding and storage upload, driving each job
// through its state machine while many jobs run independently.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/storyweave/videopipe/internal/domain/model"
	"github.com/storyweave/videopipe/internal/domain/repository"
	"github.com/storyweave/videopipe/internal/infrastructure/metrics"
	"github.com/storyweave/videopipe/internal/planner"
	"github.com/storyweave/videopipe/internal/provider"
	"github.com/storyweave/videopipe/internal/transcoder"
)

const (
	progressProviderAccepted = 10
	progressSourceReady      = 25
	progressTranscoding      = 50
	progressUploading        = 80

	// pollProgressStep is added on each pending poll so callers watching the
	// job see movement during long generations. Capped below
	// progressSourceReady so the download milestone stays distinct.
	pollProgressStep = 3
)

// Config holds the orchestrator's runtime settings.
type Config struct {
	// OutputDir is the local staging root. Each job gets its own
	// subdirectory keyed by job ID.
	OutputDir string

	// PollInterval is the delay between status polls for async providers.
	PollInterval time.Duration

	// PollTimeout bounds the total time spent waiting for an async provider.
	PollTimeout time.Duration

	// DownloadTimeout bounds the source video download.
	DownloadTimeout time.Duration

	// UploadEnabled controls the uploading stage. When false (or when no
	// object storage is configured) jobs complete directly after
	// transcoding.
	UploadEnabled bool
}

// generatorSource resolves provider names to adapters. Satisfied by
// provider.Registry; abstracted so pipeline tests can inject stub adapters.
type generatorSource interface {
	Get(name string) (provider.Generator, error)
}

// Orchestrator runs the generation pipeline. One instance serves the whole
// process; each submitted job gets its own goroutine and staging directory,
// so jobs never contend except on the registry.
type Orchestrator struct {
	registry   *JobRegistry
	providers  generatorSource
	transcoder transcoder.Transcoder
	storage    repository.ObjectStorage
	events     repository.EventBus
	downloader downloader
	config     Config
	logger     *slog.Logger
}

// New creates an Orchestrator. storage may be nil to disable the uploading
// stage; events may be nil to disable lifecycle event publishing.
func New(
	cfg Config,
	providers generatorSource,
	tc transcoder.Transcoder,
	storage repository.ObjectStorage,
	events repository.EventBus,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry:   NewJobRegistry(),
		providers:  providers,
		transcoder: tc,
		storage:    storage,
		events:     events,
		downloader: newHTTPDownloader(cfg.DownloadTimeout),
		config:     cfg,
		logger:     logger,
	}
}

// uploadEnabled reports whether the uploading stage runs for this process.
func (o *Orchestrator) uploadEnabled() bool {
	return o.config.UploadEnabled && o.storage != nil
}

// Submit registers a new job and starts its pipeline in the background.
// The returned snapshot is the job's state at registration time; callers
// follow further progress via Get.
func (o *Orchestrator) Submit(ctx context.Context, projectID string, req model.GenerationRequest) (*model.PipelineJob, error) {
	gen, err := o.providers.Get(req.Provider)
	if err != nil {
		return nil, err
	}

	job, err := model.NewPipelineJob(projectID, req)
	if err != nil {
		return nil, err
	}

	if err := o.registry.Register(job); err != nil {
		return nil, err
	}

	o.publishEvent(job)

	go o.run(job.ID, gen, req)

	return job, nil
}

// Get returns a snapshot of the job with the given ID.
func (o *Orchestrator) Get(id uuid.UUID) (*model.PipelineJob, error) {
	return o.registry.Get(id)
}

// Registry exposes the job registry for periodic cleanup sweeps.
func (o *Orchestrator) Registry() *JobRegistry {
	return o.registry
}

// EstimateSeconds is a coarse wall-clock estimate for a submitted request,
// used to give callers a polling hint. Generation dominates; transcoding and
// upload add a roughly constant tail.
func EstimateSeconds(req model.GenerationRequest) int {
	return 30 + 15*req.Duration
}

// run drives one job through the pipeline. It never returns an error: every
// failure is recorded on the job itself.
func (o *Orchestrator) run(jobID uuid.UUID, gen provider.Generator, req model.GenerationRequest) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("pipeline stage panicked",
				slog.String("job_id", jobID.String()),
				slog.Any("panic", r),
			)
			o.failJob(jobID, "internal pipeline error")
		}
	}()

	ctx := context.Background()

	result, ok := o.generate(ctx, jobID, gen, req)
	if !ok {
		return
	}

	if result.Mock {
		o.runMock(jobID, result)
		return
	}

	sourcePath, ok := o.download(ctx, jobID, result.VideoURL)
	if !ok {
		return
	}

	output, ok := o.transcode(ctx, jobID, sourcePath)
	if !ok {
		return
	}

	if !o.uploadEnabled() {
		o.completeJob(jobID, func(job *model.PipelineJob) {
			job.PlaylistURL = output.MasterPlaylistPath
			job.PosterURL = output.PosterPath
		})
		return
	}

	o.upload(ctx, jobID, output.OutputDir)
}

// generate submits the request and, for async providers, polls until the
// video URL is available. Returns ok=false if the job was failed.
func (o *Orchestrator) generate(ctx context.Context, jobID uuid.UUID, gen provider.Generator, req model.GenerationRequest) (model.GenerationResult, bool) {
	timer := prometheus.NewTimer(metrics.StageDurationSeconds.WithLabelValues(metrics.StageGenerate))
	defer timer.ObserveDuration()

	mode := metrics.ProviderModeLive
	result := gen.Generate(ctx, req)
	if result.Mock {
		mode = metrics.ProviderModeMock
	}

	if !result.Success {
		metrics.ProviderRequestsTotal.WithLabelValues(gen.Name(), mode, metrics.ResultFailure).Inc()
		o.failJob(jobID, result.Error)
		return result, false
	}
	metrics.ProviderRequestsTotal.WithLabelValues(gen.Name(), mode, metrics.ResultSuccess).Inc()

	if _, err := o.transition(jobID, model.StatusDownloading, progressProviderAccepted); err != nil {
		o.failJob(jobID, fmt.Sprintf("state transition failed: %v", err))
		return result, false
	}

	if result.Pending() {
		polled, ok := o.pollUntilReady(ctx, jobID, gen, result.JobID)
		if !ok {
			return result, false
		}
		// Preserve the mock marker across polls.
		polled.Mock = polled.Mock || result.Mock
		result = polled
	}

	if result.VideoURL == "" && !result.Mock {
		o.failJob(jobID, "provider returned no video URL")
		return result, false
	}

	o.updateJob(jobID, func(job *model.PipelineJob) error {
		job.VideoURL = result.VideoURL
		return job.SetProgress(progressSourceReady)
	})

	return result, true
}

// pollUntilReady polls an async provider until the result carries a video
// URL, the provider reports failure, or the poll timeout elapses.
func (o *Orchestrator) pollUntilReady(ctx context.Context, jobID uuid.UUID, gen provider.Generator, providerJobID string) (model.GenerationResult, bool) {
	interval := o.config.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	timeout := o.config.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	progress := progressProviderAccepted
	for {
		select {
		case <-ctx.Done():
			o.failJob(jobID, "generation cancelled")
			return model.GenerationResult{}, false
		case <-deadline.C:
			o.failJob(jobID, fmt.Sprintf("generation timed out after %s", timeout))
			return model.GenerationResult{}, false
		case <-ticker.C:
			result := gen.CheckStatus(ctx, providerJobID)
			if !result.Success {
				o.failJob(jobID, result.Error)
				return result, false
			}
			if !result.Pending() {
				return result, true
			}
			if progress+pollProgressStep < progressSourceReady {
				progress += pollProgressStep
				o.updateJob(jobID, func(job *model.PipelineJob) error {
					return job.SetProgress(progress)
				})
			}
		}
	}
}

// download fetches the generated video into the job's staging area.
func (o *Orchestrator) download(ctx context.Context, jobID uuid.UUID, videoURL string) (string, bool) {
	timer := prometheus.NewTimer(metrics.StageDurationSeconds.WithLabelValues(metrics.StageDownload))
	defer timer.ObserveDuration()

	sourcePath := filepath.Join(o.config.OutputDir, "sources", jobID.String()+".mp4")
	if err := o.downloader.Download(ctx, videoURL, sourcePath); err != nil {
		o.failJob(jobID, fmt.Sprintf("download failed: %v", err))
		return "", false
	}

	snapshot, err := o.registry.Update(jobID, func(job *model.PipelineJob) error {
		job.LocalPath = sourcePath
		if err := job.TransitionTo(model.StatusTranscoding); err != nil {
			return err
		}
		return job.SetProgress(progressTranscoding)
	})
	if err != nil {
		o.failJob(jobID, fmt.Sprintf("state transition failed: %v", err))
		return "", false
	}
	o.publishEvent(snapshot)

	return sourcePath, true
}

// transcode probes the source, selects the rendition ladder and runs the
// adaptive encode. Partial rendition failure is tolerated; total failure or
// a missing poster fails the job.
func (o *Orchestrator) transcode(ctx context.Context, jobID uuid.UUID, sourcePath string) (*transcoder.Output, bool) {
	timer := prometheus.NewTimer(metrics.StageDurationSeconds.WithLabelValues(metrics.StageTranscode))
	defer timer.ObserveDuration()

	dims, err := o.transcoder.Probe(ctx, sourcePath)
	if err != nil {
		o.failJob(jobID, fmt.Sprintf("probe failed: %v", err))
		return nil, false
	}

	profiles := planner.SelectProfiles(dims.Width, dims.Height)
	outputDir := filepath.Join(o.config.OutputDir, jobID.String())

	output, err := o.transcoder.TranscodeAdaptive(ctx, sourcePath, outputDir, profiles)
	if err != nil {
		o.failJob(jobID, fmt.Sprintf("transcoding failed: %v", err))
		return nil, false
	}

	for range output.Renditions {
		metrics.RenditionsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	}
	for _, f := range output.Failed {
		metrics.RenditionsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		o.logger.Warn("rendition failed, continuing with remainder",
			slog.String("job_id", jobID.String()),
			slog.String("profile", f.Profile.Name),
			slog.String("error", f.Err.Error()),
		)
	}

	_, err = o.updateJob(jobID, func(job *model.PipelineJob) error {
		job.OutputDir = output.OutputDir
		return nil
	})
	if err != nil {
		o.failJob(jobID, fmt.Sprintf("job update failed: %v", err))
		return nil, false
	}

	return output, true
}

// upload mirrors the transcode output into object storage and completes the
// job. Any file failing to land fails the job: partially uploaded content is
// not durable enough to serve.
func (o *Orchestrator) upload(ctx context.Context, jobID uuid.UUID, outputDir string) {
	if _, err := o.transition(jobID, model.StatusUploading, progressUploading); err != nil {
		o.failJob(jobID, fmt.Sprintf("state transition failed: %v", err))
		return
	}

	timer := prometheus.NewTimer(metrics.StageDurationSeconds.WithLabelValues(metrics.StageUpload))
	defer timer.ObserveDuration()

	result, err := o.storage.UploadTree(ctx, outputDir, jobID.String())
	if err != nil {
		o.failJob(jobID, fmt.Sprintf("upload failed: %v", err))
		return
	}

	for range result.Uploaded {
		metrics.UploadFilesTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	}
	for range result.Failed {
		metrics.UploadFilesTotal.WithLabelValues(metrics.ResultFailure).Inc()
	}

	if !result.Success {
		o.failJob(jobID, fmt.Sprintf("upload incomplete: %d of %d files failed",
			len(result.Failed), len(result.Failed)+len(result.Uploaded)))
		return
	}

	o.completeJob(jobID, func(job *model.PipelineJob) {
		job.StoragePath = result.Prefix
		job.PlaylistURL = o.storage.PublicURL(path.Join(result.Prefix, "master.m3u8"))
		job.PosterURL = o.storage.PublicURL(path.Join(result.Prefix, "poster.jpg"))
	})
}

// runMock walks the job through the same observable state sequence as a real
// pipeline, synthesizing terminal URLs from the mock result. Callers can only
// tell the difference via the provenance fields on the result.
func (o *Orchestrator) runMock(jobID uuid.UUID, result model.GenerationResult) {
	steps := []struct {
		status   model.Status
		progress int
	}{
		{model.StatusTranscoding, progressTranscoding},
	}
	if o.uploadEnabled() {
		steps = append(steps, struct {
			status   model.Status
			progress int
		}{model.StatusUploading, progressUploading})
	}

	o.updateJob(jobID, func(job *model.PipelineJob) error {
		job.VideoURL = result.VideoURL
		return job.SetProgress(progressSourceReady)
	})

	for _, step := range steps {
		if _, err := o.transition(jobID, step.status, step.progress); err != nil {
			o.failJob(jobID, fmt.Sprintf("state transition failed: %v", err))
			return
		}
	}

	o.completeJob(jobID, func(job *model.PipelineJob) {
		job.PlaylistURL = strings.TrimSuffix(result.VideoURL, ".mp4") + "/master.m3u8"
		job.PosterURL = result.ThumbnailURL
	})
}

// transition moves the job to the given status and progress and publishes
// the resulting snapshot.
func (o *Orchestrator) transition(jobID uuid.UUID, status model.Status, progress int) (*model.PipelineJob, error) {
	snapshot, err := o.registry.Update(jobID, func(job *model.PipelineJob) error {
		if err := job.TransitionTo(status); err != nil {
			return err
		}
		return job.SetProgress(progress)
	})
	if err != nil {
		return nil, err
	}
	o.publishEvent(snapshot)
	return snapshot, nil
}

// updateJob applies a mutation without publishing an event. Errors are
// logged, not fatal: a progress update that loses a race with a transition
// must not kill the pipeline.
func (o *Orchestrator) updateJob(jobID uuid.UUID, fn func(job *model.PipelineJob) error) (*model.PipelineJob, error) {
	snapshot, err := o.registry.Update(jobID, fn)
	if err != nil {
		o.logger.Warn("job update skipped",
			slog.String("job_id", jobID.String()),
			slog.String("error", err.Error()),
		)
	}
	return snapshot, err
}

// completeJob marks the job COMPLETED, applying extra field updates first.
func (o *Orchestrator) completeJob(jobID uuid.UUID, apply func(job *model.PipelineJob)) {
	snapshot, err := o.registry.Update(jobID, func(job *model.PipelineJob) error {
		if apply != nil {
			apply(job)
		}
		return job.Complete()
	})
	if err != nil {
		o.logger.Error("failed to complete job",
			slog.String("job_id", jobID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	metrics.JobsTotal.WithLabelValues(metrics.JobStatusCompleted).Inc()
	o.publishEvent(snapshot)
	o.logger.Info("pipeline job completed",
		slog.String("job_id", jobID.String()),
		slog.String("playlist_url", snapshot.PlaylistURL),
	)
}

// failJob marks the job FAILED with the given message. The job stays in the
// registry for inspection; retries always get a fresh job ID.
func (o *Orchestrator) failJob(jobID uuid.UUID, msg string) {
	snapshot, err := o.registry.Update(jobID, func(job *model.PipelineJob) error {
		return job.Fail(msg)
	})
	if err != nil {
		o.logger.Error("failed to mark job as failed",
			slog.String("job_id", jobID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	metrics.JobsTotal.WithLabelValues(metrics.JobStatusFailed).Inc()
	o.publishEvent(snapshot)
	o.logger.Error("pipeline job failed",
		slog.String("job_id", jobID.String()),
		slog.String("error", msg),
	)
}

// publishEvent emits a lifecycle event for the snapshot. Event delivery is
// best-effort: a broker outage must not affect the pipeline.
func (o *Orchestrator) publishEvent(job *model.PipelineJob) {
	if o.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := repository.JobEvent{
		JobID:       job.ID.String(),
		ProjectID:   job.ProjectID,
		Provider:    job.Meta.Provider,
		Status:      job.Status.String(),
		Progress:    job.Progress,
		Error:       job.Error,
		PlaylistURL: job.PlaylistURL,
		PosterURL:   job.PosterURL,
		OccurredAt:  time.Now(),
	}
	if err := o.events.PublishJobEvent(ctx, event); err != nil {
		o.logger.Warn("failed to publish job event",
			slog.String("job_id", job.ID.String()),
			slog.String("status", event.Status),
			slog.String("error", err.Error()),
		)
	}
}
