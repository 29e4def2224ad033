// Package storage persists opaque binary blobs (rendered QR images,
// uploaded logos) under a local directory. Keys are flat, caller-opaque
// handles; nothing outside this package builds filesystem paths.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrBlobNotFound signals that no blob exists under the given key.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrInvalidKey signals a key that does not stay inside the store.
	ErrInvalidKey = errors.New("invalid blob key")
)

// BlobStore is a filesystem-backed blob store rooted at a single
// directory.
type BlobStore struct {
	root   string
	logger *zap.Logger
}

// NewBlobStore creates the root directory if needed.
func NewBlobStore(root string, logger *zap.Logger) (*BlobStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if root == "" {
		return nil, fmt.Errorf("storage: empty root directory")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root %s: %w", root, err)
	}
	return &BlobStore{root: root, logger: logger}, nil
}

// Save writes data under key, replacing any previous content. The write
// goes through a temp file so readers never observe a partial blob.
func (s *BlobStore) Save(key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("storage: commit %s: %w", key, err)
	}
	return nil
}

// Load returns the full content stored under key.
func (s *BlobStore) Load(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return data, nil
}

// Remove deletes the blob under key. Removing a missing blob is not an
// error.
func (s *BlobStore) Remove(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove %s: %w", key, err)
	}
	return nil
}

// RemoveBestEffort deletes the blob and only logs on failure. Used where
// a dangling blob is a lesser harm than failing the caller's operation,
// such as replacing a regenerated QR image.
func (s *BlobStore) RemoveBestEffort(key string) {
	if err := s.Remove(key); err != nil {
		s.logger.Warn("best-effort blob cleanup failed",
			zap.String("key", key), zap.Error(err))
	}
}

func (s *BlobStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, key), nil
}
