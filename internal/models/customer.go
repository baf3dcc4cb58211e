package models

import (
	"time"
)

// Customer represents an end user who contacts the helpdesk by email.
// Customers are created lazily on the first inbound message from an unknown
// address; the email is unique per tenant.
type Customer struct {
	ID        int64     `json:"id" db:"id"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	Email     string    `json:"email" db:"email"`
	Name      *string   `json:"name,omitempty" db:"name"`
	Notes     *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayName returns the customer's name, falling back to the email address
// when no name has been learned yet.
func (c *Customer) DisplayName() string {
	if c.Name != nil && *c.Name != "" {
		return *c.Name
	}
	return c.Email
}
