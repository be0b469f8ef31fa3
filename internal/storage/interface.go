package storage

import (
	"context"
	"io"
)

// Storage archives sweep report artifacts. Reports are write-once;
// Download exists for the registrar's audit retrieval.
type Storage interface {
	Upload(ctx context.Context, key string, data io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
}
