package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/maildesk-io/maildesk/internal/models"
)

// TicketRepository persists tickets.
type TicketRepository struct {
	db *sqlx.DB
}

// NewTicketRepository creates a ticket repository.
func NewTicketRepository(db *sqlx.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `id, tenant_id, number, customer_id, subject, status, priority,
	thread_id, opening_message_id, tags, due_date, created_at, updated_at`

// GetByThreadID finds the ticket opened from a provider conversation thread.
func (r *TicketRepository) GetByThreadID(ctx context.Context, tenantID, threadID string) (*models.Ticket, error) {
	const q = `SELECT ` + ticketColumns + `
	           FROM tickets WHERE tenant_id = $1 AND thread_id = $2`
	ticket := &models.Ticket{}
	err := r.db.GetContext(ctx, ticket, q, tenantID, threadID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket by thread: %w", err)
	}
	return ticket, nil
}

// GetByNumber finds a ticket by its human-readable number (TKT-0015).
func (r *TicketRepository) GetByNumber(ctx context.Context, tenantID, number string) (*models.Ticket, error) {
	const q = `SELECT ` + ticketColumns + `
	           FROM tickets WHERE tenant_id = $1 AND number = $2`
	ticket := &models.Ticket{}
	err := r.db.GetContext(ctx, ticket, q, tenantID, number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket by number: %w", err)
	}
	return ticket, nil
}

// GetByOpeningMessage finds the ticket a provider message already opened in
// an earlier run. Keeps re-scans of thread-less mail from opening twice.
func (r *TicketRepository) GetByOpeningMessage(ctx context.Context, tenantID, providerMessageID string) (*models.Ticket, error) {
	const q = `SELECT ` + ticketColumns + `
	           FROM tickets WHERE tenant_id = $1 AND opening_message_id = $2`
	ticket := &models.Ticket{}
	err := r.db.GetContext(ctx, ticket, q, tenantID, providerMessageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket by opening message: %w", err)
	}
	return ticket, nil
}

// Create inserts a new ticket.
func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) (int64, error) {
	const q = `INSERT INTO tickets (tenant_id, number, customer_id, subject, status, priority,
	               thread_id, opening_message_id, tags, due_date, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	           RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		ticket.TenantID, ticket.Number, ticket.CustomerID, ticket.Subject,
		ticket.Status, ticket.Priority, ticket.ThreadID, ticket.OpeningMessageID,
		ticket.Tags, ticket.DueDate,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to create ticket: %w", err)
	}
	return id, nil
}
