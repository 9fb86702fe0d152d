package repository

import "errors"

var (
	// ErrJobNotFound is returned when a pipeline job cannot be found.
	ErrJobNotFound = errors.New("pipeline job not found")

	// ErrDuplicateJob is returned when attempting to register a job ID that already exists.
	ErrDuplicateJob = errors.New("pipeline job already exists")

	// ErrBucketNotFound is returned when the configured storage bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrObjectNotFound is returned when a storage object cannot be found.
	ErrObjectNotFound = errors.New("object not found")
)
