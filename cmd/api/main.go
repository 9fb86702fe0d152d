package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/storyweave/videopipe/internal/api/handler"
	"github.com/storyweave/videopipe/internal/api/middleware"
	"github.com/storyweave/videopipe/internal/config"
	"github.com/storyweave/videopipe/internal/domain/repository"
	"github.com/storyweave/videopipe/internal/infrastructure/cache"
	"github.com/storyweave/videopipe/internal/infrastructure/queue"
	"github.com/storyweave/videopipe/internal/infrastructure/storage"
	"github.com/storyweave/videopipe/internal/orchestrator"
	"github.com/storyweave/videopipe/internal/provider"
	"github.com/storyweave/videopipe/internal/transcoder"
	"github.com/storyweave/videopipe/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Best-effort: absence of a .env file is the normal production case.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.Pipeline.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers := provider.NewRegistry(provider.Credentials{
		RunwayAPIKey:    cfg.Providers.RunwayAPIKey,
		LumaAPIKey:      cfg.Providers.LumaAPIKey,
		PikaAPIKey:      cfg.Providers.PikaAPIKey,
		StabilityAPIKey: cfg.Providers.StabilityAPIKey,
	}, logger)

	ffmpegCfg := transcoder.DefaultFFmpegConfig()
	ffmpegCfg.FFmpegPath = cfg.Pipeline.FFmpegPath
	ffmpegCfg.FFprobePath = cfg.Pipeline.FFprobePath
	ffmpegCfg.MaxConcurrent = cfg.Pipeline.MaxConcurrent
	tc := transcoder.NewFFmpegTranscoder(ffmpegCfg)

	var storageClient *storage.Client
	if cfg.MinIO.Configured() {
		storageClient, err = storage.NewClient(ctx, storage.ClientConfig{
			Endpoint:      cfg.MinIO.Endpoint,
			AccessKey:     cfg.MinIO.AccessKey,
			SecretKey:     cfg.MinIO.SecretKey,
			Bucket:        cfg.MinIO.Bucket,
			UseSSL:        cfg.MinIO.UseSSL,
			PublicBaseURL: cfg.MinIO.PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to MinIO: %w", err)
		}
		logger.Info("connected to MinIO", slog.String("bucket", cfg.MinIO.Bucket))
	} else {
		logger.Warn("object storage not configured, jobs will complete without uploading")
	}

	var queueClient *queue.Client
	if cfg.RabbitMQ.Enabled {
		queueClient, err = queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer queueClient.Close()
		logger.Info("connected to RabbitMQ")
	}

	orch := orchestrator.New(
		orchestrator.Config{
			OutputDir:       cfg.Pipeline.OutputDir,
			PollInterval:    cfg.Pipeline.PollInterval,
			PollTimeout:     cfg.Pipeline.PollTimeout,
			DownloadTimeout: cfg.Pipeline.DownloadTimeout,
			UploadEnabled:   cfg.Pipeline.UploadEnabled,
		},
		providers,
		tc,
		storageOrNil(storageClient),
		eventsOrNil(queueClient),
		logger,
	)

	svc := usecase.NewPipelineService(orch)

	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Info("connected to Redis")

		jobCache := cache.NewRedisJobCache(redisClient)
		svc = usecase.NewCachedPipelineService(svc, jobCache, usecase.DefaultCachedPipelineServiceConfig())
	}

	r := setupRouter(logger, svc)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go runCleanupSweep(ctx, orch, cfg.Pipeline.CleanupInterval, cfg.Pipeline.JobRetention, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupRouter(logger *slog.Logger, svc usecase.PipelineService) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Get("/health", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	pipelineHandler := handler.NewPipelineHandler(svc)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/pipeline", pipelineHandler.Submit)
		r.Get("/pipeline/{id}", pipelineHandler.Get)
	})

	return r
}

// storageOrNil avoids handing the orchestrator a non-nil interface wrapping
// a nil *storage.Client when object storage is not configured.
func storageOrNil(c *storage.Client) repository.ObjectStorage {
	if c == nil {
		return nil
	}
	return c
}

func eventsOrNil(c *queue.Client) repository.EventBus {
	if c == nil {
		return nil
	}
	return c
}

// runCleanupSweep periodically evicts terminal jobs older than the retention
// window so the in-memory registry does not grow without bound.
func runCleanupSweep(ctx context.Context, orch *orchestrator.Orchestrator, interval, retention time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := orch.Registry().CleanupOlderThan(retention); removed > 0 {
				logger.Info("cleaned up finished jobs", slog.Int("removed", removed))
			}
		}
	}
}
