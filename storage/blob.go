package storage

import (
	"context"
	"errors"
	"io"
)

// ErrBlobNotFound is returned when a stored path has no bytes behind it
// anymore, e.g. the file was deleted outside the server.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore persists uploaded audio payloads. The path returned by Save
// is what gets recorded on the AudioFile and later handed back to Open.
type BlobStore interface {
	// Save writes the payload under the given stored name and returns
	// the path to record in metadata.
	Save(ctx context.Context, storedName string, r io.Reader, size int64) (string, error)
	// Open returns a seekable reader over the blob plus its size.
	Open(ctx context.Context, path string) (io.ReadSeekCloser, int64, error)
	// Stat returns the blob size, or ErrBlobNotFound.
	Stat(ctx context.Context, path string) (int64, error)
	// Remove deletes the blob. Removing a missing blob is not an error.
	Remove(ctx context.Context, path string) error
}
