package storage

import (
	"context"
	"io"
	"time"
)

// PutOptions describes a single object upload.
type PutOptions struct {
	Key         string
	ContentType string
	Size        int64
}

// Service stores pet images in remote object storage.
type Service interface {
	// Put uploads body and returns an s3://bucket/key reference.
	Put(ctx context.Context, body io.Reader, opts PutOptions) (string, error)
	// Delete removes the object behind ref. Refs outside the bucket are ignored.
	Delete(ctx context.Context, ref string) error
	// URL returns a time-limited GET link for ref.
	URL(ctx context.Context, ref string, expires time.Duration) (string, error)
	// Owns reports whether ref points into this service's bucket.
	Owns(ref string) bool
}
