package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/maildesk-io/maildesk/internal/models"
	"github.com/maildesk-io/maildesk/internal/secrets"
)

// MailAccountRepository persists connected provider mailboxes. Refresh
// credentials are sealed before they touch the database.
type MailAccountRepository struct {
	db  *sqlx.DB
	box *secrets.Box
}

// NewMailAccountRepository creates a mail account repository.
func NewMailAccountRepository(db *sqlx.DB, box *secrets.Box) *MailAccountRepository {
	return &MailAccountRepository{db: db, box: box}
}

const mailAccountColumns = `id, tenant_id, user_id, email_address, group_address,
	refresh_token_sealed, is_active, last_sync_at, created_at, updated_at`

// Create inserts a new account with its refresh credential sealed. A second
// active account for the same (user, tenant) is rejected by the partial
// unique index and surfaces as ErrDuplicate.
func (r *MailAccountRepository) Create(ctx context.Context, account *models.MailAccount, refreshToken string) (int64, error) {
	sealed, err := r.box.SealString(refreshToken)
	if err != nil {
		return 0, fmt.Errorf("failed to seal refresh credential: %w", err)
	}

	const q = `INSERT INTO mail_accounts (tenant_id, user_id, email_address, group_address,
	               refresh_token_sealed, is_active, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, true, NOW(), NOW())
	           RETURNING id`
	var id int64
	err = r.db.QueryRowContext(ctx, q,
		account.TenantID, account.UserID, account.EmailAddress, account.GroupAddress, sealed,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to create mail account: %w", err)
	}
	return id, nil
}

// GetActiveAccounts returns every active account across all tenants, for the
// scheduled batch sync.
func (r *MailAccountRepository) GetActiveAccounts(ctx context.Context) ([]*models.MailAccount, error) {
	const q = `SELECT ` + mailAccountColumns + `
	           FROM mail_accounts WHERE is_active = true ORDER BY tenant_id, email_address`
	var accounts []*models.MailAccount
	if err := r.db.SelectContext(ctx, &accounts, q); err != nil {
		return nil, fmt.Errorf("failed to list active mail accounts: %w", err)
	}
	return accounts, nil
}

// GetActiveForUser resolves the single active account for a tenant/user pair.
func (r *MailAccountRepository) GetActiveForUser(ctx context.Context, tenantID, userID string) (*models.MailAccount, error) {
	const q = `SELECT ` + mailAccountColumns + `
	           FROM mail_accounts WHERE tenant_id = $1 AND user_id = $2 AND is_active = true`
	account := &models.MailAccount{}
	err := r.db.GetContext(ctx, account, q, tenantID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mail account: %w", err)
	}
	return account, nil
}

// RefreshCredential opens the account's sealed refresh token.
func (r *MailAccountRepository) RefreshCredential(account *models.MailAccount) (string, error) {
	return r.box.OpenString(account.RefreshTokenSealed)
}

// UpdateLastSync records a completed sync pass. This runs even when
// individual messages failed, so the timestamp means "attempted", not
// "fully clean".
func (r *MailAccountRepository) UpdateLastSync(ctx context.Context, id int64, at time.Time) error {
	const q = `UPDATE mail_accounts SET last_sync_at = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, q, id, at); err != nil {
		return fmt.Errorf("failed to update last sync time: %w", err)
	}
	return nil
}

// Disable soft-disables an account on disconnect.
func (r *MailAccountRepository) Disable(ctx context.Context, id int64) error {
	const q = `UPDATE mail_accounts SET is_active = false, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("failed to disable mail account: %w", err)
	}
	return nil
}
