package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FilesystemBackend stores attachment objects as files under a root
// directory, mirroring the object path layout on disk.
type FilesystemBackend struct {
	root   string
	signer *URLSigner
}

// NewFilesystemBackend creates a filesystem backend rooted at the given
// directory.
func NewFilesystemBackend(root string, signer *URLSigner) (*FilesystemBackend, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root is not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FilesystemBackend{root: root, signer: signer}, nil
}

// Store implements Backend. Writes go through a temp file and rename so a
// concurrent reader never observes a partial object.
func (b *FilesystemBackend) Store(ctx context.Context, path, contentType string, data []byte) error {
	full, err := b.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("failed to finalize object: %w", err)
	}
	return nil
}

// Retrieve implements Backend.
func (b *FilesystemBackend) Retrieve(ctx context.Context, path string) ([]byte, error) {
	full, err := b.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("object not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

// Exists implements Backend.
func (b *FilesystemBackend) Exists(ctx context.Context, path string) (bool, error) {
	full, err := b.resolve(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %w", err)
	}
	return true, nil
}

// Delete implements Backend.
func (b *FilesystemBackend) Delete(ctx context.Context, path string) error {
	full, err := b.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// SignedURL implements Backend.
func (b *FilesystemBackend) SignedURL(path string, ttl time.Duration) (string, error) {
	if b.signer == nil {
		return "", fmt.Errorf("no URL signer configured")
	}
	return b.signer.Sign(path, ttl), nil
}

// HealthCheck implements Backend.
func (b *FilesystemBackend) HealthCheck(ctx context.Context) error {
	if _, err := os.Stat(b.root); err != nil {
		return fmt.Errorf("storage root unavailable: %w", err)
	}
	return nil
}

// resolve joins the object path under the root and rejects traversal.
func (b *FilesystemBackend) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object path: %s", path)
	}
	return filepath.Join(b.root, clean), nil
}
