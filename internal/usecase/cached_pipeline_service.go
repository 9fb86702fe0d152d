package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/storyweave/videopipe/internal/domain/model"
	"github.com/storyweave/videopipe/internal/infrastructure/cache"
	"github.com/storyweave/videopipe/internal/infrastructure/metrics"
)

// CachedPipelineServiceConfig holds configuration for CachedPipelineService.
type CachedPipelineServiceConfig struct {
	// ActiveTTL is the TTL for snapshots of jobs still moving through the
	// pipeline. Kept short so pollers see progress within a bounded delay.
	ActiveTTL time.Duration
	// TerminalTTL is the TTL for completed and failed jobs, whose snapshots
	// never change again.
	TerminalTTL time.Duration
}

// DefaultCachedPipelineServiceConfig returns the default configuration.
func DefaultCachedPipelineServiceConfig() CachedPipelineServiceConfig {
	return CachedPipelineServiceConfig{
		ActiveTTL:   2 * time.Second,
		TerminalTTL: 5 * time.Minute,
	}
}

// cachedPipelineService wraps PipelineService with caching capabilities.
// It implements the decorator pattern to absorb high-frequency status polling
// without modifying the original service.
type cachedPipelineService struct {
	delegate PipelineService
	cache    cache.JobCache
	sfGroup  singleflight.Group

	activeTTL   time.Duration
	terminalTTL time.Duration
}

// NewCachedPipelineService creates a new CachedPipelineService wrapping the
// provided PipelineService.
func NewCachedPipelineService(
	delegate PipelineService,
	jobCache cache.JobCache,
	cfg CachedPipelineServiceConfig,
) PipelineService {
	return &cachedPipelineService{
		delegate:    delegate,
		cache:       jobCache,
		activeTTL:   cfg.ActiveTTL,
		terminalTTL: cfg.TerminalTTL,
	}
}

// Submit delegates to the underlying service and invalidates any stale cache
// entry for the new job ID. Fresh IDs should never collide, but a cache that
// outlives registry cleanup could.
func (s *cachedPipelineService) Submit(ctx context.Context, input SubmitInput) (*SubmitOutput, error) {
	out, err := s.delegate.Submit(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Delete(ctx, out.Job.ID); err != nil {
		slog.Warn("failed to invalidate cache on submit",
			"job_id", out.Job.ID,
			"error", err,
		)
	}

	return out, nil
}

// GetJob retrieves the job snapshot with caching.
// Uses singleflight to prevent cache stampede on concurrent polls for the
// same job.
func (s *cachedPipelineService) GetJob(ctx context.Context, jobID uuid.UUID) (*model.PipelineJob, error) {
	key := jobID.String()
	result, err, shared := s.sfGroup.Do(key, func() (any, error) {
		return s.getJobWithCache(ctx, jobID)
	})

	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		return nil, err
	}

	return result.(*model.PipelineJob), nil
}

// getJobWithCache implements the cache-aside pattern.
func (s *cachedPipelineService) getJobWithCache(ctx context.Context, jobID uuid.UUID) (*model.PipelineJob, error) {
	job, err := s.cache.Get(ctx, jobID)
	if err != nil {
		// Log cache error but continue to the registry
		slog.Warn("cache get failed, falling back to registry",
			"job_id", jobID,
			"error", err,
		)
	}

	if job != nil {
		metrics.CacheOperationsTotal.WithLabelValues(
			metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeRedis).Inc()
		return job, nil // Cache hit
	}
	metrics.CacheOperationsTotal.WithLabelValues(
		metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeRedis).Inc()

	// Cache miss - fetch from the registry
	job, err = s.delegate.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	ttl := s.activeTTL
	if job.IsTerminal() {
		ttl = s.terminalTTL
	}
	if err := s.cache.Set(ctx, job, ttl); err != nil {
		slog.Warn("failed to cache job",
			"job_id", jobID,
			"error", err,
		)
	}

	return job, nil
}
