package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/maildesk-io/maildesk/internal/models"
)

// MessageRepository persists ticket messages. The table carries a partial
// unique constraint on (ticket_id, provider_message_id), which is what turns
// a concurrent double-insert of the same inbound mail into a safe rejection
// instead of a silent duplicate.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a message repository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// ExistsByProviderID reports whether a message row already exists for
// (ticket, provider message id). This is the fast-path dedup check; the
// database constraint covers the race it cannot.
func (r *MessageRepository) ExistsByProviderID(ctx context.Context, ticketID int64, providerMessageID string) (bool, error) {
	const q = `SELECT EXISTS (
	               SELECT 1 FROM messages WHERE ticket_id = $1 AND provider_message_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, ticketID, providerMessageID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check message existence: %w", err)
	}
	return exists, nil
}

// Create inserts a message and returns its id. A uniqueness rejection on
// (ticket_id, provider_message_id) surfaces as ErrDuplicate.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) (int64, error) {
	const q = `INSERT INTO messages (tenant_id, ticket_id, sender_email, sender_name, body,
	               body_html, is_customer, is_internal_note, provider_message_id, attachments, created_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	           RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		msg.TenantID, msg.TicketID, msg.SenderEmail, msg.SenderName, msg.Body,
		msg.BodyHTML, msg.IsCustomer, msg.IsInternalNote, msg.ProviderMessageID, msg.Attachments,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to create message: %w", err)
	}
	return id, nil
}

// UpdateAttachments replaces the message's attachment metadata list in one
// write, after all uploads for the message have been attempted.
func (r *MessageRepository) UpdateAttachments(ctx context.Context, id int64, attachments models.AttachmentList) error {
	const q = `UPDATE messages SET attachments = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, q, id, attachments); err != nil {
		return fmt.Errorf("failed to update message attachments: %w", err)
	}
	return nil
}
