package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/maildesk-io/maildesk/internal/models"
	"github.com/maildesk-io/maildesk/internal/repository"
	"github.com/maildesk-io/maildesk/internal/ticketnumber"
)

// ResolutionKind tags how an inbound message was mapped to a ticket.
type ResolutionKind int

const (
	// ThreadMatch: a ticket in the tenant already carries the message's
	// provider thread id. Strongest signal, checked first.
	ThreadMatch ResolutionKind = iota
	// ReferenceMatch: no thread match, but the subject or body quotes an
	// existing ticket number. Catches replies whose provider threading broke.
	ReferenceMatch
	// OpeningMatch: this exact provider message already opened a ticket in
	// an earlier run. Catches thread-less mail re-surfaced by the rescan
	// window, which carries no other link back to its ticket.
	OpeningMatch
	// NewTicket: nothing matched; a customer and ticket were created.
	NewTicket
)

// Resolution is the outcome of mapping one inbound message to a ticket.
// Customer is populated only for NewTicket.
type Resolution struct {
	Kind     ResolutionKind
	Ticket   *models.Ticket
	Customer *models.Customer
}

// Inbound is the pipeline's view of one fetched message after MIME
// classification.
type Inbound struct {
	ProviderID  string
	ThreadID    string
	Subject     string
	SenderEmail string
	SenderName  string
	Body        string
	HTMLBody    string
}

// Resolver maps inbound messages to tickets: thread id first, quoted
// reference code second, prior opening message third, new ticket (with lazy
// customer creation) last.
type Resolver struct {
	tickets   *repository.TicketRepository
	customers *repository.CustomerRepository
	allocator *ticketnumber.Allocator
}

// NewResolver creates a resolver.
func NewResolver(tickets *repository.TicketRepository, customers *repository.CustomerRepository, allocator *ticketnumber.Allocator) *Resolver {
	return &Resolver{tickets: tickets, customers: customers, allocator: allocator}
}

// Resolve evaluates the tiers in strict order; the first match wins.
func (r *Resolver) Resolve(ctx context.Context, tenantID string, in *Inbound) (*Resolution, error) {
	if in.ThreadID != "" {
		ticket, err := r.tickets.GetByThreadID(ctx, tenantID, in.ThreadID)
		if err == nil {
			return &Resolution{Kind: ThreadMatch, Ticket: ticket}, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	if number, ok := r.allocator.ExtractReference(in.Subject, in.Body); ok {
		ticket, err := r.tickets.GetByNumber(ctx, tenantID, number)
		if err == nil {
			return &Resolution{Kind: ReferenceMatch, Ticket: ticket}, nil
		}
		// The quoted number is advisory: a stale or mistyped reference
		// falls through to new-ticket creation.
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	if in.ProviderID != "" {
		ticket, err := r.tickets.GetByOpeningMessage(ctx, tenantID, in.ProviderID)
		if err == nil {
			return &Resolution{Kind: OpeningMatch, Ticket: ticket}, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	return r.createTicket(ctx, tenantID, in)
}

func (r *Resolver) createTicket(ctx context.Context, tenantID string, in *Inbound) (*Resolution, error) {
	customer, err := r.resolveCustomer(ctx, tenantID, in)
	if err != nil {
		return nil, err
	}

	number, err := r.allocator.Next(ctx, tenantID)
	if err != nil {
		return nil, &WriteError{Op: "allocate ticket number", Err: err}
	}

	subject := in.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	ticket := &models.Ticket{
		TenantID:   tenantID,
		Number:     number,
		CustomerID: customer.ID,
		Subject:    subject,
		Status:     models.TicketStatusOpen,
		Priority:   models.TicketPriorityMedium,
	}
	if in.ThreadID != "" {
		ticket.ThreadID = &in.ThreadID
	}
	if in.ProviderID != "" {
		ticket.OpeningMessageID = &in.ProviderID
	}

	id, err := r.tickets.Create(ctx, ticket)
	if errors.Is(err, repository.ErrDuplicate) && in.ProviderID != "" {
		// Lost an open race with a concurrent sync of the same message.
		existing, getErr := r.tickets.GetByOpeningMessage(ctx, tenantID, in.ProviderID)
		if getErr == nil {
			return &Resolution{Kind: OpeningMatch, Ticket: existing}, nil
		}
	}
	if err != nil {
		return nil, &WriteError{Op: "create ticket", Err: err}
	}
	ticket.ID = id

	return &Resolution{Kind: NewTicket, Ticket: ticket, Customer: customer}, nil
}

// resolveCustomer finds or lazily creates the sender's customer record,
// backfilling the display name when it was never learned.
func (r *Resolver) resolveCustomer(ctx context.Context, tenantID string, in *Inbound) (*models.Customer, error) {
	customer, err := r.customers.GetByEmail(ctx, tenantID, in.SenderEmail)
	if err == nil {
		if in.SenderName != "" && (customer.Name == nil || *customer.Name == "") {
			if err := r.customers.BackfillName(ctx, customer.ID, in.SenderName); err != nil {
				return nil, &WriteError{Op: "backfill customer name", Err: err}
			}
			customer.Name = &in.SenderName
		}
		return customer, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to resolve customer: %w", err)
	}

	customer = &models.Customer{TenantID: tenantID, Email: in.SenderEmail}
	if in.SenderName != "" {
		customer.Name = &in.SenderName
	}
	id, err := r.customers.Create(ctx, customer)
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost a create race with a concurrent sync; the row exists now.
		return r.customers.GetByEmail(ctx, tenantID, in.SenderEmail)
	}
	if err != nil {
		return nil, &WriteError{Op: "create customer", Err: err}
	}
	customer.ID = id
	return customer, nil
}
