package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig
	Pipeline  PipelineConfig
	Providers ProviderConfig
	Database  DatabaseConfig
	MinIO     MinIOConfig
	RabbitMQ  RabbitMQConfig
	Redis     RedisConfig
	Worker    WorkerConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
}

type PipelineConfig struct {
	OutputDir       string        `envconfig:"PIPELINE_OUTPUT_DIR" default:"/tmp/videopipe"`
	PollInterval    time.Duration `envconfig:"PIPELINE_POLL_INTERVAL" default:"5s"`
	PollTimeout     time.Duration `envconfig:"PIPELINE_POLL_TIMEOUT" default:"10m"`
	DownloadTimeout time.Duration `envconfig:"PIPELINE_DOWNLOAD_TIMEOUT" default:"5m"`
	MaxConcurrent   int           `envconfig:"PIPELINE_MAX_CONCURRENT_ENCODES" default:"4"`
	UploadEnabled   bool          `envconfig:"PIPELINE_UPLOAD_ENABLED" default:"true"`
	JobRetention    time.Duration `envconfig:"PIPELINE_JOB_RETENTION" default:"1h"`
	CleanupInterval time.Duration `envconfig:"PIPELINE_CLEANUP_INTERVAL" default:"10m"`
	FFmpegPath      string        `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	FFprobePath     string        `envconfig:"FFPROBE_PATH" default:"ffprobe"`
}

// ProviderConfig holds the per-provider API keys. An absent key is not an
// error: that provider degrades to the deterministic mock adapter.
type ProviderConfig struct {
	RunwayAPIKey    string `envconfig:"RUNWAY_API_KEY"`
	LumaAPIKey      string `envconfig:"LUMA_API_KEY"`
	PikaAPIKey      string `envconfig:"PIKA_API_KEY"`
	StabilityAPIKey string `envconfig:"STABILITY_API_KEY"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"videopipe"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"videopipe"`
	DBName   string `envconfig:"POSTGRES_DB" default:"videopipe"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type MinIOConfig struct {
	Endpoint      string `envconfig:"MINIO_ENDPOINT"`
	AccessKey     string `envconfig:"MINIO_ACCESS_KEY"`
	SecretKey     string `envconfig:"MINIO_SECRET_KEY"`
	Bucket        string `envconfig:"MINIO_BUCKET" default:"videopipe"`
	UseSSL        bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	PublicBaseURL string `envconfig:"MINIO_PUBLIC_BASE_URL"`
}

// Configured reports whether object storage credentials are present.
// Absent credentials disable the uploading stage rather than failing startup.
func (c MinIOConfig) Configured() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != ""
}

type RabbitMQConfig struct {
	Host     string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port     int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	User     string `envconfig:"RABBITMQ_USER" default:"videopipe"`
	Password string `envconfig:"RABBITMQ_PASSWORD" default:"videopipe"`
	VHost    string `envconfig:"RABBITMQ_VHOST" default:"/"`
	Enabled  bool   `envconfig:"RABBITMQ_ENABLED" default:"true"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

// WorkerConfig tunes the event archiver process.
type WorkerConfig struct {
	ShutdownTimeout time.Duration `envconfig:"WORKER_SHUTDOWN_TIMEOUT" default:"30s"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
