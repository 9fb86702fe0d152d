// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "videopipe"

var (
	// JobsTotal tracks pipeline jobs reaching a terminal state.
	// Labels:
	//   - status: completed, failed
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Total number of pipeline jobs by terminal status",
		},
		[]string{"status"},
	)

	// StageDurationSeconds observes wall-clock time spent per pipeline stage.
	// Labels:
	//   - stage: generate, download, transcode, upload
	StageDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"stage"},
	)

	// RenditionsTotal tracks individual rendition encode outcomes.
	// Labels:
	//   - result: success, failure
	RenditionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renditions_total",
			Help:      "Total number of rendition encodes",
		},
		[]string{"result"},
	)

	// ProviderRequestsTotal tracks generation requests sent to providers.
	// Labels:
	//   - provider: runway, luma, pika, stable-video
	//   - mode: live, mock
	//   - result: success, failure
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of provider generation requests",
		},
		[]string{"provider", "mode", "result"},
	)

	// UploadFilesTotal tracks individual file uploads to object storage.
	// Labels:
	//   - result: success, failure
	UploadFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_files_total",
			Help:      "Total number of object storage file uploads",
		},
		[]string{"result"},
	)

	// CacheOperationsTotal tracks cache operations (get, set, delete).
	// Labels:
	//   - operation: get, set, delete
	//   - status: hit, miss, success, error
	//   - cache_type: redis
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "status", "cache_type"},
	)

	// SingleflightRequestsTotal tracks singleflight behavior.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)
)

// Terminal job status constants.
const (
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Pipeline stage constants.
const (
	StageGenerate  = "generate"
	StageDownload  = "download"
	StageTranscode = "transcode"
	StageUpload    = "upload"
)

// Generic result constants.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Provider mode constants.
const (
	ProviderModeLive = "live"
	ProviderModeMock = "mock"
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet    = "get"
	CacheOpSet    = "set"
	CacheOpDelete = "delete"
)

// Cache type constants.
const (
	CacheTypeRedis = "redis"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)
