package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maildesk-io/maildesk/internal/models"
)

func TestCustomerGetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomerRepository(db)

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "email", "name", "notes", "created_at", "updated_at"}).
		AddRow(int64(3), "acme", "alice@example.com", "Alice", nil, time.Now(), time.Now())
	mock.ExpectQuery(`SELECT id, tenant_id, email, name, notes`).
		WithArgs("acme", "alice@example.com").
		WillReturnRows(rows)

	customer, err := repo.GetByEmail(context.Background(), "acme", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(3), customer.ID)
	assert.Equal(t, "Alice", customer.DisplayName())
}

func TestCustomerGetByEmailNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectQuery(`SELECT id, tenant_id, email, name, notes`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByEmail(context.Background(), "acme", "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCustomerCreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectQuery(`INSERT INTO customers`).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.Customer{TenantID: "acme", Email: "alice@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCustomerBackfillName(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectExec(`UPDATE customers SET name`).
		WithArgs(int64(3), "Alice").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.BackfillName(context.Background(), 3, "Alice"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
