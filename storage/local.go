package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"audioforge/logger"
)

// LocalStore keeps uploaded payloads on the local filesystem under a
// base directory. This is the default blob backend.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", baseDir, err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// BaseDir returns the uploads directory, used by the fsnotify watcher.
func (s *LocalStore) BaseDir() string {
	return s.baseDir
}

func (s *LocalStore) Save(ctx context.Context, storedName string, r io.Reader, size int64) (string, error) {
	path := filepath.Join(s.baseDir, storedName)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file %s: %w", path, err)
	}

	written, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload file %s: %w", path, err)
	}
	if size > 0 && written != size {
		os.Remove(path)
		return "", fmt.Errorf("short write for upload file %s: wrote %d of %d bytes", path, written, size)
	}

	logger.Debug("stored upload", logger.String("path", path), logger.Int64("bytes", written))
	return path, nil
}

func (s *LocalStore) Open(ctx context.Context, path string) (io.ReadSeekCloser, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrBlobNotFound
		}
		return nil, 0, fmt.Errorf("failed to open blob %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat blob %s: %w", path, err)
	}
	return f, info.Size(), nil
}

func (s *LocalStore) Stat(ctx context.Context, path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrBlobNotFound
		}
		return 0, fmt.Errorf("failed to stat blob %s: %w", path, err)
	}
	return info.Size(), nil
}

func (s *LocalStore) Remove(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove blob %s: %w", path, err)
	}
	return nil
}
