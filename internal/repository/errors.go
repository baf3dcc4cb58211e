package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert hits a uniqueness constraint.
// For message writes this is the expected outcome of a concurrent sync
// processing the same provider message, not a failure.
var ErrDuplicate = errors.New("duplicate row")

// uniqueViolation is the Postgres error code for unique_violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
