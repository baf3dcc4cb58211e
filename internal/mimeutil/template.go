package mimeutil

import (
	"strings"

	"github.com/maildesk-io/maildesk/internal/models"
)

// TemplateVars is the fixed variable set available to reply templates.
// Substitution is literal token replacement; tokens that are not in the set
// are left verbatim.
type TemplateVars struct {
	TicketNumber  string
	CustomerName  string
	CustomerEmail string
	TicketSubject string
}

// VarsFor builds the template variables for a ticket/customer pair.
func VarsFor(ticket *models.Ticket, customer *models.Customer) TemplateVars {
	return TemplateVars{
		TicketNumber:  ticket.Number,
		CustomerName:  customer.DisplayName(),
		CustomerEmail: customer.Email,
		TicketSubject: ticket.Subject,
	}
}

// CompileTemplate substitutes the fixed variable set into a template string.
func CompileTemplate(template string, vars TemplateVars) string {
	replacer := strings.NewReplacer(
		"{{ticket_number}}", vars.TicketNumber,
		"{{customer.name}}", vars.CustomerName,
		"{{customer.email}}", vars.CustomerEmail,
		"{{ticket.subject}}", vars.TicketSubject,
	)
	return replacer.Replace(template)
}
