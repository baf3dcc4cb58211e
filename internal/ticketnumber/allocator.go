// Package ticketnumber allocates and parses the human-readable ticket
// sequence numbers (TKT-0001, TKT-0002, ...) that customers quote in reply
// subjects.
package ticketnumber

import (
	"context"
	"fmt"
	"regexp"
)

// CounterStore hands out the next counter value for a tenant. Implementations
// must be atomic under concurrent allocation.
type CounterStore interface {
	// Add increments the tenant's counter by offset (>= 1) and returns the
	// new value.
	Add(ctx context.Context, tenantID string, offset int64) (int64, error)
}

// Allocator formats counter values into ticket numbers.
type Allocator struct {
	store     CounterStore
	prefix    string
	minDigits int
	pattern   *regexp.Regexp
}

// NewAllocator creates an allocator. Zero minDigits defaults to 4, matching
// the canonical TKT-0001 form.
func NewAllocator(store CounterStore, prefix string, minDigits int) *Allocator {
	if prefix == "" {
		prefix = "TKT-"
	}
	if minDigits <= 0 {
		minDigits = 4
	}
	return &Allocator{
		store:     store,
		prefix:    prefix,
		minDigits: minDigits,
		pattern:   regexp.MustCompile(`(?i)\[?\s*` + regexp.QuoteMeta(prefix) + `(\d+)\s*\]?`),
	}
}

// Next allocates the next ticket number for a tenant. Allocation is
// serialized by the store, so two concurrently created tickets never collide.
func (a *Allocator) Next(ctx context.Context, tenantID string) (string, error) {
	c, err := a.store.Add(ctx, tenantID, 1)
	if err != nil {
		return "", fmt.Errorf("failed to allocate ticket number: %w", err)
	}
	return a.Format(c), nil
}

// Format renders a counter value in canonical zero-padded form.
func (a *Allocator) Format(counter int64) string {
	return fmt.Sprintf("%s%0*d", a.prefix, a.minDigits, counter)
}
