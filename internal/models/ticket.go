package models

import (
	"time"

	"github.com/lib/pq"
)

// TicketStatus enumerates the lifecycle states of a ticket.
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "open"
	TicketStatusPending TicketStatus = "pending"
	TicketStatusSolved  TicketStatus = "solved"
	TicketStatusClosed  TicketStatus = "closed"
)

// TicketPriority enumerates ticket priorities.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Ticket represents one conversation with a customer. Number is the
// human-readable sequence identifier allocated per tenant (TKT-0001, ...).
// ThreadID and OpeningMessageID record the provider conversation the ticket
// was opened from; later messages attach without touching them.
type Ticket struct {
	ID               int64          `json:"id" db:"id"`
	TenantID         string         `json:"tenant_id" db:"tenant_id"`
	Number           string         `json:"number" db:"number"`
	CustomerID       int64          `json:"customer_id" db:"customer_id"`
	Subject          string         `json:"subject" db:"subject"`
	Status           TicketStatus   `json:"status" db:"status"`
	Priority         TicketPriority `json:"priority" db:"priority"`
	ThreadID         *string        `json:"thread_id,omitempty" db:"thread_id"`
	OpeningMessageID *string        `json:"opening_message_id,omitempty" db:"opening_message_id"`
	Tags             pq.StringArray `json:"tags" db:"tags"`
	DueDate          *time.Time     `json:"due_date,omitempty" db:"due_date"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}
