package ticketnumber

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestDBStoreAdd(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewDBStore(db)

	mock.ExpectQuery(`INSERT INTO ticket_number_counter`).
		WithArgs("acme", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"counter"}).AddRow(int64(16)))

	c, err := store.Add(context.Background(), "acme", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(16), c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBStoreAddRejectsBadOffset(t *testing.T) {
	db, _ := newMockDB(t)
	store := NewDBStore(db)

	_, err := store.Add(context.Background(), "acme", 0)
	assert.Error(t, err)
}
