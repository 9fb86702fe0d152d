package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/storyweave/videopipe/internal/domain/model"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, cleanup
}

func testJob() *model.PipelineJob {
	return &model.PipelineJob{
		ID:        uuid.New(),
		ProjectID: "project-1",
		Status:    model.StatusTranscoding,
		Progress:  50,
		Meta: model.JobMeta{
			Provider:    "runway",
			Prompt:      "a fox running through snow",
			Duration:    5,
			AspectRatio: "16:9",
		},
		VideoURL:  "https://provider.example.com/out.mp4",
		LocalPath: "/tmp/jobs/abc/source.mp4",
		StartedAt: time.Now().Truncate(time.Microsecond),
	}
}

func TestRedisJobCache_Get_CacheHit(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisJobCache(client)
	ctx := context.Background()

	job := testJob()

	// Set the job in cache
	err := cache.Set(ctx, job, 5*time.Minute)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Get the job from cache
	got, err := cache.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got == nil {
		t.Fatal("expected job, got nil")
	}

	// Verify fields
	if got.ID != job.ID {
		t.Errorf("ID = %v, want %v", got.ID, job.ID)
	}
	if got.ProjectID != job.ProjectID {
		t.Errorf("ProjectID = %v, want %v", got.ProjectID, job.ProjectID)
	}
	if got.Status != job.Status {
		t.Errorf("Status = %v, want %v", got.Status, job.Status)
	}
	if got.Progress != job.Progress {
		t.Errorf("Progress = %v, want %v", got.Progress, job.Progress)
	}
	if got.Meta != job.Meta {
		t.Errorf("Meta = %+v, want %+v", got.Meta, job.Meta)
	}
	if got.VideoURL != job.VideoURL {
		t.Errorf("VideoURL = %v, want %v", got.VideoURL, job.VideoURL)
	}
	if !got.StartedAt.Equal(job.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, job.StartedAt)
	}
	if got.EndedAt != nil {
		t.Errorf("EndedAt = %v, want nil", got.EndedAt)
	}
}

func TestRedisJobCache_Get_CacheMiss(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisJobCache(client)
	ctx := context.Background()

	// Try to get a non-existent job
	got, err := cache.Get(ctx, uuid.New())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got != nil {
		t.Errorf("expected nil for cache miss, got %v", got)
	}
}

func TestRedisJobCache_TerminalJob_RoundTrip(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisJobCache(client)
	ctx := context.Background()

	ended := time.Now().Truncate(time.Microsecond)
	job := testJob()
	job.Status = model.StatusCompleted
	job.Progress = 100
	job.PlaylistURL = "https://cdn.example.com/vid/test/master.m3u8"
	job.PosterURL = "https://cdn.example.com/vid/test/poster.jpg"
	job.EndedAt = &ended

	if err := cache.Set(ctx, job, 5*time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := cache.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.Status != model.StatusCompleted {
		t.Errorf("Status = %v, want %v", got.Status, model.StatusCompleted)
	}
	if got.PlaylistURL != job.PlaylistURL {
		t.Errorf("PlaylistURL = %v, want %v", got.PlaylistURL, job.PlaylistURL)
	}
	if got.EndedAt == nil {
		t.Fatal("EndedAt = nil, want non-nil")
	}
	if !got.EndedAt.Equal(ended) {
		t.Errorf("EndedAt = %v, want %v", got.EndedAt, ended)
	}
}

func TestRedisJobCache_Delete(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisJobCache(client)
	ctx := context.Background()

	job := testJob()

	// Set the job in cache
	err := cache.Set(ctx, job, 5*time.Minute)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Delete the job from cache
	err = cache.Delete(ctx, job.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// Verify it's gone
	got, err := cache.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got != nil {
		t.Errorf("expected nil after delete, got %v", got)
	}
}

func TestRedisJobCache_Delete_NonExistent(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisJobCache(client)
	ctx := context.Background()

	// Delete non-existent job should not error
	err := cache.Delete(ctx, uuid.New())
	if err != nil {
		t.Fatalf("Delete failed for non-existent key: %v", err)
	}
}

func TestRedisJobCache_Set_AllStatuses(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisJobCache(client)
	ctx := context.Background()

	statuses := []model.Status{
		model.StatusPending,
		model.StatusDownloading,
		model.StatusTranscoding,
		model.StatusUploading,
		model.StatusCompleted,
		model.StatusFailed,
	}

	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			job := testJob()
			job.Status = status

			err := cache.Set(ctx, job, 5*time.Minute)
			if err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			got, err := cache.Get(ctx, job.ID)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}

			if got.Status != status {
				t.Errorf("Status = %v, want %v", got.Status, status)
			}
		})
	}
}

func TestRedisJobCache_buildKey(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisJobCache(client)
	jobID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

	key := cache.buildKey(jobID)
	expected := "job:550e8400-e29b-41d4-a716-446655440000"

	if key != expected {
		t.Errorf("buildKey() = %v, want %v", key, expected)
	}
}
