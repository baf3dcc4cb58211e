package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/maildesk-io/maildesk/internal/models"
)

// ReplySettingsRepository persists the per-tenant auto-acknowledgement
// templates.
type ReplySettingsRepository struct {
	db *sqlx.DB
}

// NewReplySettingsRepository creates a reply settings repository.
func NewReplySettingsRepository(db *sqlx.DB) *ReplySettingsRepository {
	return &ReplySettingsRepository{db: db}
}

// GetByTenant returns the tenant's reply settings, or ErrNotFound when the
// tenant never configured any (auto-acknowledgement stays off).
func (r *ReplySettingsRepository) GetByTenant(ctx context.Context, tenantID string) (*models.ReplySettings, error) {
	const q = `SELECT tenant_id, subject_template, body_template, updated_at
	           FROM reply_settings WHERE tenant_id = $1`
	settings := &models.ReplySettings{}
	err := r.db.GetContext(ctx, settings, q, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reply settings: %w", err)
	}
	return settings, nil
}

// Upsert stores the tenant's templates.
func (r *ReplySettingsRepository) Upsert(ctx context.Context, settings *models.ReplySettings) error {
	const q = `INSERT INTO reply_settings (tenant_id, subject_template, body_template, updated_at)
	           VALUES ($1, $2, $3, NOW())
	           ON CONFLICT (tenant_id) DO UPDATE SET subject_template = EXCLUDED.subject_template,
	               body_template = EXCLUDED.body_template, updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, q, settings.TenantID, settings.SubjectTemplate, settings.BodyTemplate); err != nil {
		return fmt.Errorf("failed to upsert reply settings: %w", err)
	}
	return nil
}
