package ingest

import (
	"fmt"
)

// WriteError means the store rejected an insert or update. The affected
// message is skipped and logged; sibling work already committed for the same
// message is kept (attachment objects are path-idempotent, so a later
// re-sync re-attempts cleanly).
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store write failed during %s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
