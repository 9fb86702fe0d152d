package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/storyweave/videopipe/internal/domain/repository"
)

// storagePrefix is the deterministic root for uploaded video trees.
const storagePrefix = "vid"

// cacheControlImmutable is applied to every uploaded object. Segment and
// playlist content never changes once produced: a changed video is a new
// job, not an in-place mutation.
const cacheControlImmutable = "public, max-age=31536000, immutable"

// minioClient defines the interface for MinIO operations.
// This abstraction allows for easier unit testing with mocks.
type minioClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// minioClientAdapter wraps *minio.Client to satisfy minioClient.
type minioClientAdapter struct {
	client *minio.Client
}

func (a *minioClientAdapter) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return a.client.BucketExists(ctx, bucketName)
}

func (a *minioClientAdapter) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return a.client.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}

func (a *minioClientAdapter) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return a.client.StatObject(ctx, bucketName, objectName, opts)
}

// ClientConfig holds configuration for the MinIO client.
type ClientConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL is the external-facing base for served content
	// (e.g., a CDN in front of the bucket). Defaults to the endpoint.
	PublicBaseURL string
}

// Client wraps a MinIO client and implements repository.ObjectStorage.
type Client struct {
	client        minioClient
	bucket        string
	publicBaseURL string
}

// Compile-time verification that Client implements repository.ObjectStorage.
var _ repository.ObjectStorage = (*Client)(nil)

// NewClient creates a new MinIO client.
// It verifies the bucket exists during initialization to fail fast on misconfiguration.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return newClientWithMinioClient(ctx, &minioClientAdapter{client: client}, cfg)
}

// newClientWithMinioClient creates a Client with a given minioClient implementation.
// This is used for dependency injection in tests.
func newClientWithMinioClient(ctx context.Context, client minioClient, cfg ClientConfig) (*Client, error) {
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", repository.ErrBucketNotFound, cfg.Bucket)
	}

	publicBase := strings.TrimRight(cfg.PublicBaseURL, "/")
	if publicBase == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &Client{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: publicBase,
	}, nil
}

// Upload stores a single object in the storage with the immutable
// cache-control header.
func (c *Client) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	_, err := c.client.PutObject(ctx, c.bucket, key, reader, -1, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: cacheControlImmutable,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// UploadTree mirrors a local directory tree into the bucket under
// "vid/<name>/...", preserving relative paths with forward slashes
// regardless of the host path convention.
//
// Every file is attempted even after individual failures so the caller gets
// a complete picture of what did and did not land. Success is true only if
// every upload succeeded.
func (c *Client) UploadTree(ctx context.Context, localDir, name string) (*repository.UploadResult, error) {
	result := &repository.UploadResult{
		Success: true,
		Prefix:  path.Join(storagePrefix, name),
	}

	var files []string
	err := filepath.WalkDir(localDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk local directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to upload in %s", localDir)
	}
	sort.Strings(files)

	for _, file := range files {
		rel, err := filepath.Rel(localDir, file)
		if err != nil {
			result.Success = false
			result.Failed = append(result.Failed, repository.FileError{Path: file, Error: err.Error()})
			continue
		}

		key := path.Join(result.Prefix, filepath.ToSlash(rel))
		if err := c.uploadFile(ctx, file, key); err != nil {
			result.Success = false
			result.Failed = append(result.Failed, repository.FileError{Path: filepath.ToSlash(rel), Error: err.Error()})
			continue
		}
		result.Uploaded = append(result.Uploaded, key)
	}

	return result, nil
}

// uploadFile uploads one local file under the given key.
func (c *Client) uploadFile(ctx context.Context, localPath, key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}

	_, err = c.client.PutObject(ctx, c.bucket, key, file, info.Size(), minio.PutObjectOptions{
		ContentType:  contentTypeFor(localPath),
		CacheControl: cacheControlImmutable,
	})
	if err != nil {
		return fmt.Errorf("storage upload: %w", err)
	}
	return nil
}

// contentTypeFor maps pipeline output extensions to media types.
func contentTypeFor(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/mp2t"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

// PublicURL returns the public URL for a stored object key.
func (c *Client) PublicURL(key string) string {
	return c.publicBaseURL + "/" + strings.TrimLeft(key, "/")
}

// Ping verifies the MinIO connection is alive by checking bucket access.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to ping minio: %w", err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}
