package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/storyweave/videopipe/internal/config"
	"github.com/storyweave/videopipe/internal/domain/model"
	"github.com/storyweave/videopipe/internal/domain/repository"
	"github.com/storyweave/videopipe/internal/infrastructure/postgres"
	"github.com/storyweave/videopipe/internal/infrastructure/queue"
)

// The worker consumes job lifecycle events published by the API process and
// archives terminal outcomes to PostgreSQL. Intermediate transitions are
// logged but not persisted; the archive records how each job ended, not how
// it got there.

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	pgClient, err := postgres.NewClient(ctx, postgres.DefaultClientConfig(cfg.Database.DSN()))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pgClient.Close()
	logger.Info("connected to PostgreSQL")

	queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

	archive := postgres.NewJobRepository(pgClient.Pool())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting archiver, consuming job events")
		err := queueClient.ConsumeJobEvents(ctx, func(event repository.JobEvent) error {
			wg.Add(1)
			defer wg.Done()
			return archiveEvent(ctx, archive, event, logger)
		})
		if err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down worker", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	// Stop consuming new messages, then wait for in-flight archives.
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("all in-flight events processed")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, some events may not have been archived")
	}

	logger.Info("worker stopped")
	return nil
}

// archiveEvent persists terminal events. Returning an error requeues the
// message; the archive upsert makes redelivery harmless.
func archiveEvent(ctx context.Context, archive repository.JobArchive, event repository.JobEvent, logger *slog.Logger) error {
	status := model.Status(event.Status)
	if !status.IsTerminal() {
		logger.Info("job progressed",
			slog.String("job_id", event.JobID),
			slog.String("status", event.Status),
			slog.Int("progress", event.Progress),
		)
		return nil
	}

	job, err := jobFromEvent(event)
	if err != nil {
		// Malformed IDs will never parse; requeueing would loop forever.
		logger.Error("dropping unarchivable event",
			slog.String("job_id", event.JobID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	saveCtx, saveCancel := context.WithTimeout(ctx, 10*time.Second)
	defer saveCancel()

	if err := archive.Save(saveCtx, job); err != nil {
		return fmt.Errorf("failed to archive job %s: %w", event.JobID, err)
	}

	logger.Info("archived job",
		slog.String("job_id", event.JobID),
		slog.String("status", event.Status),
	)
	return nil
}

// jobFromEvent reconstructs an archivable record from a lifecycle event.
// Events carry outcome fields only, so the event timestamp stands in for
// both start and end times.
func jobFromEvent(event repository.JobEvent) (*model.PipelineJob, error) {
	id, err := uuid.Parse(event.JobID)
	if err != nil {
		return nil, fmt.Errorf("invalid job ID %q: %w", event.JobID, err)
	}

	occurred := event.OccurredAt
	return &model.PipelineJob{
		ID:        id,
		ProjectID: event.ProjectID,
		Status:    model.Status(event.Status),
		Progress:  event.Progress,
		Meta: model.JobMeta{
			Provider: event.Provider,
		},
		PlaylistURL: event.PlaylistURL,
		PosterURL:   event.PosterURL,
		Error:       event.Error,
		StartedAt:   occurred,
		EndedAt:     &occurred,
	}, nil
}
