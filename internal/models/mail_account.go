package models

import (
	"time"
)

// MailAccount represents a connected provider mailbox that is polled for
// inbound mail. One active account exists per (user, tenant); disconnecting
// soft-disables the row instead of deleting it.
type MailAccount struct {
	ID                 int64      `json:"id" db:"id"`
	TenantID           string     `json:"tenant_id" db:"tenant_id"`
	UserID             string     `json:"user_id" db:"user_id"`
	EmailAddress       string     `json:"email_address" db:"email_address"`
	GroupAddress       *string    `json:"group_address,omitempty" db:"group_address"`
	RefreshTokenSealed []byte     `json:"-" db:"refresh_token_sealed"`
	IsActive           bool       `json:"is_active" db:"is_active"`
	LastSyncAt         *time.Time `json:"last_sync_at,omitempty" db:"last_sync_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// FromAddress returns the address outbound mail should be sent from.
// The mirrored group address takes precedence over the personal mailbox.
func (a *MailAccount) FromAddress() string {
	if a.GroupAddress != nil && *a.GroupAddress != "" {
		return *a.GroupAddress
	}
	return a.EmailAddress
}

// UsesGroupAddress reports whether outbound mail goes out under the
// mirrored group address rather than the personal mailbox address.
func (a *MailAccount) UsesGroupAddress() bool {
	return a.GroupAddress != nil && *a.GroupAddress != ""
}
