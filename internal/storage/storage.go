package storage

import (
	"context"
	"io"
	"time"
)

// Package storage holds the object-store abstraction used to archive the
// final payload snapshot of converted drafts (S3-compatible backends).
// Implementations must rely on streaming I/O only, no local disk.

// ObjectInfo contains basic information about a stored archive object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Archiver is a reusable S3-compatible object storage client interface.
type Archiver interface {
	// Put uploads an object under the given key using the provided reader.
	// size must be the exact byte count of the content.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (ObjectInfo, error)
	// Get retrieves an archived object's content alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
}
