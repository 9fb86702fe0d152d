package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/storyweave/videopipe/internal/domain/model"
	"github.com/storyweave/videopipe/internal/domain/repository"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// JobRepository implements repository.JobArchive using PostgreSQL.
type JobRepository struct {
	db DBTX
}

// NewJobRepository creates a new JobRepository instance.
func NewJobRepository(db DBTX) *JobRepository {
	return &JobRepository{db: db}
}

// Save persists a job record. Re-saving the same job ID overwrites the
// previous record, so event redelivery is harmless.
func (r *JobRepository) Save(ctx context.Context, job *model.PipelineJob) error {
	const query = `
		INSERT INTO pipeline_jobs (
			id, project_id, status, progress,
			provider, prompt, duration, aspect_ratio,
			video_url, playlist_url, poster_url, error,
			started_at, ended_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			progress = EXCLUDED.progress,
			video_url = EXCLUDED.video_url,
			playlist_url = EXCLUDED.playlist_url,
			poster_url = EXCLUDED.poster_url,
			error = EXCLUDED.error,
			ended_at = EXCLUDED.ended_at
	`

	_, err := r.db.Exec(ctx, query,
		job.ID,
		job.ProjectID,
		job.Status.String(),
		job.Progress,
		job.Meta.Provider,
		job.Meta.Prompt,
		job.Meta.Duration,
		job.Meta.AspectRatio,
		nullString(job.VideoURL),
		nullString(job.PlaylistURL),
		nullString(job.PosterURL),
		nullString(job.Error),
		job.StartedAt,
		job.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	return nil
}

// GetByID retrieves an archived job by its unique identifier.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PipelineJob, error) {
	const query = `
		SELECT id, project_id, status, progress,
		       provider, prompt, duration, aspect_ratio,
		       video_url, playlist_url, poster_url, error,
		       started_at, ended_at
		FROM pipeline_jobs
		WHERE id = $1
	`

	job, err := scanJob(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job by ID: %w", err)
	}

	return job, nil
}

// ListByProject retrieves all archived jobs belonging to a project, newest first.
func (r *JobRepository) ListByProject(ctx context.Context, projectID string) ([]*model.PipelineJob, error) {
	const query = `
		SELECT id, project_id, status, progress,
		       provider, prompt, duration, aspect_ratio,
		       video_url, playlist_url, poster_url, error,
		       started_at, ended_at
		FROM pipeline_jobs
		WHERE project_id = $1
		ORDER BY started_at DESC
	`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs by project ID: %w", err)
	}
	defer rows.Close()

	var jobs []*model.PipelineJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating jobs: %w", err)
	}

	return jobs, nil
}

// scanJob scans a single row into a PipelineJob model.
// Works for both pgx.Row and pgx.Rows.
func scanJob(row pgx.Row) (*model.PipelineJob, error) {
	var (
		job         model.PipelineJob
		status      string
		videoURL    *string
		playlistURL *string
		posterURL   *string
		jobErr      *string
	)

	err := row.Scan(
		&job.ID,
		&job.ProjectID,
		&status,
		&job.Progress,
		&job.Meta.Provider,
		&job.Meta.Prompt,
		&job.Meta.Duration,
		&job.Meta.AspectRatio,
		&videoURL,
		&playlistURL,
		&posterURL,
		&jobErr,
		&job.StartedAt,
		&job.EndedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = model.Status(status)
	if videoURL != nil {
		job.VideoURL = *videoURL
	}
	if playlistURL != nil {
		job.PlaylistURL = *playlistURL
	}
	if posterURL != nil {
		job.PosterURL = *posterURL
	}
	if jobErr != nil {
		job.Error = *jobErr
	}

	return &job, nil
}

// nullString returns nil for empty strings, otherwise returns a pointer to the string.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Compile-time verification that JobRepository implements repository.JobArchive.
var _ repository.JobArchive = (*JobRepository)(nil)
