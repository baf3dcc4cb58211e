package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// DatabaseBackend stores attachment objects in an attachment_blobs table.
// Useful for single-node deployments that want backups to cover attachments.
type DatabaseBackend struct {
	db     *sqlx.DB
	signer *URLSigner
}

// NewDatabaseBackend creates a database-backed blob store.
func NewDatabaseBackend(db *sqlx.DB, signer *URLSigner) *DatabaseBackend {
	return &DatabaseBackend{db: db, signer: signer}
}

// Store implements Backend with upsert semantics on the object path.
func (b *DatabaseBackend) Store(ctx context.Context, path, contentType string, data []byte) error {
	const q = `INSERT INTO attachment_blobs (path, content_type, data, updated_at)
	           VALUES ($1, $2, $3, NOW())
	           ON CONFLICT (path) DO UPDATE SET content_type = EXCLUDED.content_type,
	               data = EXCLUDED.data, updated_at = NOW()`
	if _, err := b.db.ExecContext(ctx, q, path, contentType, data); err != nil {
		return fmt.Errorf("failed to store object: %w", err)
	}
	return nil
}

// Retrieve implements Backend.
func (b *DatabaseBackend) Retrieve(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := b.db.QueryRowContext(ctx, `SELECT data FROM attachment_blobs WHERE path = $1`, path).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("object not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

// Exists implements Backend.
func (b *DatabaseBackend) Exists(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := b.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM attachment_blobs WHERE path = $1)`, path).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check object: %w", err)
	}
	return exists, nil
}

// Delete implements Backend.
func (b *DatabaseBackend) Delete(ctx context.Context, path string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM attachment_blobs WHERE path = $1`, path); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// SignedURL implements Backend.
func (b *DatabaseBackend) SignedURL(path string, ttl time.Duration) (string, error) {
	if b.signer == nil {
		return "", fmt.Errorf("no URL signer configured")
	}
	return b.signer.Sign(path, ttl), nil
}

// HealthCheck implements Backend.
func (b *DatabaseBackend) HealthCheck(ctx context.Context) error {
	return b.db.PingContext(ctx)
}
