package ticketnumber

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DBStore keeps one counter row per tenant and increments it atomically with
// a Postgres upsert:
//
//	INSERT ... ON CONFLICT (tenant_id) DO UPDATE
//	    SET counter = ticket_number_counter.counter + EXCLUDED.counter
//	RETURNING counter
//
// The RETURNING clause makes the read part of the same statement, so no two
// allocations can observe the same value.
type DBStore struct {
	db *sqlx.DB
}

// NewDBStore creates a counter store over the shared database handle.
func NewDBStore(db *sqlx.DB) *DBStore {
	return &DBStore{db: db}
}

// Add implements CounterStore.
func (s *DBStore) Add(ctx context.Context, tenantID string, offset int64) (int64, error) {
	if offset < 1 {
		return 0, errors.New("bad offset")
	}
	const q = `INSERT INTO ticket_number_counter (tenant_id, counter, created_at)
	           VALUES ($1, $2, NOW())
	           ON CONFLICT (tenant_id) DO UPDATE SET counter = ticket_number_counter.counter + EXCLUDED.counter
	           RETURNING counter`
	var c int64
	if err := s.db.QueryRowContext(ctx, q, tenantID, offset).Scan(&c); err != nil {
		return 0, fmt.Errorf("failed to increment ticket counter: %w", err)
	}
	return c, nil
}
