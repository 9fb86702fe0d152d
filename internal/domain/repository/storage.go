package repository

import (
	"context"
	"io"
)

// FileError records a single file that failed to upload.
type FileError struct {
	Path  string
	Error string
}

// UploadResult aggregates the outcome of mirroring a local directory tree
// into object storage. Success is true only if every file landed; Failed
// lists the files that did not, with the remainder still attempted.
type UploadResult struct {
	Success  bool
	Prefix   string
	Uploaded []string
	Failed   []FileError
}

// ObjectStorage defines the interface for object storage operations.
// Implementations should be provided by the infrastructure layer (e.g., MinIO, S3).
type ObjectStorage interface {
	// Upload stores a single object in the storage.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error

	// UploadTree mirrors a local directory's full file tree under the
	// deterministic prefix "vid/<name>/...", preserving relative paths with
	// forward-slash separators. Every file is attempted; per-file failures
	// are aggregated into the result rather than aborting the walk.
	UploadTree(ctx context.Context, localDir, name string) (*UploadResult, error)

	// PublicURL returns the public URL for a stored object key.
	PublicURL(key string) string

	// Ping verifies the storage connection is alive.
	Ping(ctx context.Context) error
}
