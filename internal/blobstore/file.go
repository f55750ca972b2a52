package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caimel/mediacore/internal/common"
	"github.com/caimel/mediacore/internal/interfaces"
)

// FileStore implements interfaces.BlobStore over the local filesystem.
// Keys map to file paths under the base directory, e.g.
// "episodes/ep-42/transcript.json" -> "{basePath}/episodes/ep-42/transcript.json".
type FileStore struct {
	basePath string
	logger   *common.Logger
}

// NewFileStore creates a local-filesystem blob store rooted at basePath.
func NewFileStore(logger *common.Logger, basePath string) (*FileStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("blobstore: file backend requires a base path")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("blobstore: create base directory %s: %w", basePath, err)
	}
	logger.Debug().Str("path", basePath).Msg("file blob store initialized")
	return &FileStore{basePath: basePath, logger: logger}, nil
}

// sanitizeKey prevents path traversal while allowing "/" subdirectories.
func (fs *FileStore) sanitizeKey(key string) string {
	clean := filepath.Clean(key)
	clean = strings.TrimPrefix(clean, "/")
	if strings.Contains(clean, "..") {
		clean = strings.ReplaceAll(clean, "..", "__")
	}
	return clean
}

func (fs *FileStore) keyToPath(key string) string {
	return filepath.Join(fs.basePath, fs.sanitizeKey(key))
}

// Get retrieves a blob by key.
func (fs *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(fs.keyToPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("blobstore: read %s: %w", key, err)
	}
	return data, nil
}

// Put stores a blob atomically via temp file + rename.
func (fs *FileStore) Put(ctx context.Context, key string, data []byte) error {
	path := fs.keyToPath(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("blobstore: create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("blobstore: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("blobstore: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("blobstore: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("blobstore: rename temp file: %w", err)
	}
	return nil
}

// Delete removes a blob. No error if it doesn't exist.
func (fs *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(fs.keyToPath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blobstore: delete %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a blob is present.
func (fs *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(fs.keyToPath(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("blobstore: stat %s: %w", key, err)
}

var _ interfaces.BlobStore = (*FileStore)(nil)
