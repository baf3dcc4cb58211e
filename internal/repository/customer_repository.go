package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/maildesk-io/maildesk/internal/models"
)

// CustomerRepository persists helpdesk customers.
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository creates a customer repository.
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// GetByEmail looks a customer up by tenant-scoped email address.
func (r *CustomerRepository) GetByEmail(ctx context.Context, tenantID, email string) (*models.Customer, error) {
	const q = `SELECT id, tenant_id, email, name, notes, created_at, updated_at
	           FROM customers WHERE tenant_id = $1 AND email = $2`
	customer := &models.Customer{}
	err := r.db.GetContext(ctx, customer, q, tenantID, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

// Create inserts a new customer. Email is unique per tenant; a concurrent
// create of the same address surfaces as ErrDuplicate.
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) (int64, error) {
	const q = `INSERT INTO customers (tenant_id, email, name, notes, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, NOW(), NOW())
	           RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		customer.TenantID, customer.Email, customer.Name, customer.Notes,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to create customer: %w", err)
	}
	return id, nil
}

// BackfillName sets the customer's display name only when none has been
// learned yet.
func (r *CustomerRepository) BackfillName(ctx context.Context, id int64, name string) error {
	const q = `UPDATE customers SET name = $2, updated_at = NOW()
	           WHERE id = $1 AND (name IS NULL OR name = '')`
	if _, err := r.db.ExecContext(ctx, q, id, name); err != nil {
		return fmt.Errorf("failed to backfill customer name: %w", err)
	}
	return nil
}
