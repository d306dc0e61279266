package object

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound means no object exists at the storage key.
	ErrNotFound = errors.New("object not found")
	// ErrUnavailable means the backing store could not be reached or refused the call.
	ErrUnavailable = errors.New("object store unavailable")
)

// ObjectStore saves, reads and removes binary artifacts (resume PDFs and preview images).
type ObjectStore interface {
	Save(ctx context.Context, userID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}
