// Package storage persists attachment bytes under deterministic
// path-addressed keys with upsert semantics, and issues signed retrieval
// URLs so the core never serves bytes to clients directly.
package storage

import (
	"context"
	"fmt"
	"time"
)

// Backend is the interface for attachment blob storage backends.
type Backend interface {
	// Store saves content at the given path, overwriting any existing
	// object. Paths are pure functions of tenant/ticket/message/filename,
	// which is what makes re-uploads after a partial failure safe.
	Store(ctx context.Context, path, contentType string, data []byte) error

	// Retrieve gets content by path.
	Retrieve(ctx context.Context, path string) ([]byte, error)

	// Exists checks whether an object is present at the path.
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes an object.
	Delete(ctx context.Context, path string) error

	// SignedURL returns a time-limited retrieval URL for later display.
	SignedURL(path string, ttl time.Duration) (string, error)

	// HealthCheck verifies the backend is operational.
	HealthCheck(ctx context.Context) error
}

// ObjectPath builds the deterministic storage path for one attachment.
// The filename must already be sanitized.
func ObjectPath(tenantID string, ticketID, messageID int64, filename string) string {
	return fmt.Sprintf("%s/%d/%d/%s", tenantID, ticketID, messageID, filename)
}

// Constructor creates a backend from backend-specific configuration.
type Constructor func(config map[string]interface{}) (Backend, error)

// Factory creates storage backends by type name.
type Factory struct {
	constructors map[string]Constructor
}

// NewFactory creates an empty backend factory.
func NewFactory() *Factory {
	return &Factory{constructors: make(map[string]Constructor)}
}

// Register adds a backend type.
func (f *Factory) Register(backendType string, constructor Constructor) {
	f.constructors[backendType] = constructor
}

// Create instantiates a backend of the given type.
func (f *Factory) Create(backendType string, config map[string]interface{}) (Backend, error) {
	constructor, ok := f.constructors[backendType]
	if !ok {
		return nil, fmt.Errorf("unknown storage backend type: %s", backendType)
	}
	return constructor(config)
}

// List returns the registered backend types.
func (f *Factory) List() []string {
	types := make([]string, 0, len(f.constructors))
	for t := range f.constructors {
		types = append(types, t)
	}
	return types
}
