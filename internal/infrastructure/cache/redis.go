package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/storyweave/videopipe/internal/domain/model"
)

const (
	// jobCacheKeyPrefix is the prefix for job cache keys in Redis.
	jobCacheKeyPrefix = "job:"
)

// jobJSON is the JSON representation of a PipelineJob for caching.
// Using explicit struct avoids coupling to domain model's JSON tags.
type jobJSON struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	Provider    string `json:"provider"`
	Prompt      string `json:"prompt"`
	Duration    int    `json:"duration"`
	AspectRatio string `json:"aspect_ratio"`
	VideoURL    string `json:"video_url,omitempty"`
	LocalPath   string `json:"local_path,omitempty"`
	OutputDir   string `json:"output_dir,omitempty"`
	StoragePath string `json:"storage_path,omitempty"`
	PlaylistURL string `json:"playlist_url,omitempty"`
	PosterURL   string `json:"poster_url,omitempty"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"started_at"`
	EndedAt     string `json:"ended_at,omitempty"`
}

// RedisJobCache implements JobCache using Redis as the backing store.
type RedisJobCache struct {
	client *redis.Client
}

// NewRedisJobCache creates a new Redis-backed job cache.
func NewRedisJobCache(client *redis.Client) *RedisJobCache {
	return &RedisJobCache{
		client: client,
	}
}

// Get retrieves a job from Redis cache.
// Returns nil, nil on cache miss.
func (c *RedisJobCache) Get(ctx context.Context, jobID uuid.UUID) (*model.PipelineJob, error) {
	key := c.buildKey(jobID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	job, err := c.deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("deserialize job: %w", err)
	}

	return job, nil
}

// Set stores a job snapshot in Redis cache with the specified TTL.
func (c *RedisJobCache) Set(ctx context.Context, job *model.PipelineJob, ttl time.Duration) error {
	key := c.buildKey(job.ID)

	data, err := c.serialize(job)
	if err != nil {
		return fmt.Errorf("serialize job: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Delete removes a job from Redis cache.
func (c *RedisJobCache) Delete(ctx context.Context, jobID uuid.UUID) error {
	key := c.buildKey(jobID)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}

// buildKey constructs the Redis key for a job.
func (c *RedisJobCache) buildKey(jobID uuid.UUID) string {
	return jobCacheKeyPrefix + jobID.String()
}

// serialize converts a PipelineJob to JSON bytes.
func (c *RedisJobCache) serialize(job *model.PipelineJob) ([]byte, error) {
	j := jobJSON{
		ID:          job.ID.String(),
		ProjectID:   job.ProjectID,
		Status:      string(job.Status),
		Progress:    job.Progress,
		Provider:    job.Meta.Provider,
		Prompt:      job.Meta.Prompt,
		Duration:    job.Meta.Duration,
		AspectRatio: job.Meta.AspectRatio,
		VideoURL:    job.VideoURL,
		LocalPath:   job.LocalPath,
		OutputDir:   job.OutputDir,
		StoragePath: job.StoragePath,
		PlaylistURL: job.PlaylistURL,
		PosterURL:   job.PosterURL,
		Error:       job.Error,
		StartedAt:   job.StartedAt.Format(time.RFC3339Nano),
	}
	if job.EndedAt != nil {
		j.EndedAt = job.EndedAt.Format(time.RFC3339Nano)
	}
	return json.Marshal(j)
}

// deserialize converts JSON bytes to a PipelineJob.
func (c *RedisJobCache) deserialize(data []byte) (*model.PipelineJob, error) {
	var j jobJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(j.ID)
	if err != nil {
		return nil, fmt.Errorf("parse job ID: %w", err)
	}

	startedAt, err := time.Parse(time.RFC3339Nano, j.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}

	job := &model.PipelineJob{
		ID:        id,
		ProjectID: j.ProjectID,
		Status:    model.Status(j.Status),
		Progress:  j.Progress,
		Meta: model.JobMeta{
			Provider:    j.Provider,
			Prompt:      j.Prompt,
			Duration:    j.Duration,
			AspectRatio: j.AspectRatio,
		},
		VideoURL:    j.VideoURL,
		LocalPath:   j.LocalPath,
		OutputDir:   j.OutputDir,
		StoragePath: j.StoragePath,
		PlaylistURL: j.PlaylistURL,
		PosterURL:   j.PosterURL,
		Error:       j.Error,
		StartedAt:   startedAt,
	}

	if j.EndedAt != "" {
		endedAt, err := time.Parse(time.RFC3339Nano, j.EndedAt)
		if err != nil {
			return nil, fmt.Errorf("parse ended_at: %w", err)
		}
		job.EndedAt = &endedAt
	}

	return job, nil
}
