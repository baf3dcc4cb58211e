package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/maildesk-io/maildesk/internal/mimeutil"
	"github.com/maildesk-io/maildesk/internal/models"
	"github.com/maildesk-io/maildesk/internal/provider"
	"github.com/maildesk-io/maildesk/internal/repository"
)

// genericFromName is used on outbound mail sent under a mirrored group
// address, where the polling user's personal name would be misleading.
const genericFromName = "Support"

// Acknowledger sends the templated confirmation email when a new ticket is
// opened from inbound mail. Tenants without a body template get nothing.
type Acknowledger struct {
	settings *repository.ReplySettingsRepository
	mailbox  provider.Mailbox
	logger   *log.Logger
}

// NewAcknowledger creates an acknowledger.
func NewAcknowledger(settings *repository.ReplySettingsRepository, mailbox provider.Mailbox) *Acknowledger {
	return &Acknowledger{
		settings: settings,
		mailbox:  mailbox,
		logger:   log.New(log.Writer(), "[Acknowledger] ", log.LstdFlags),
	}
}

// ComposeAcknowledgement compiles the outbound acknowledgement for a ticket
// from the tenant's templates. The second return is false when the tenant has
// acknowledgements disabled.
func ComposeAcknowledgement(settings *models.ReplySettings, account *models.MailAccount, ticket *models.Ticket, customer *models.Customer) (mimeutil.Outbound, bool) {
	if !settings.Enabled() {
		return mimeutil.Outbound{}, false
	}

	vars := mimeutil.VarsFor(ticket, customer)
	subject := mimeutil.CompileTemplate(settings.SubjectTemplate, vars)
	if subject == "" {
		subject = fmt.Sprintf("[%s] %s", ticket.Number, ticket.Subject)
	}

	fromName := genericFromName
	if !account.UsesGroupAddress() {
		fromName = ""
	}

	return mimeutil.Outbound{
		FromAddress: account.FromAddress(),
		FromName:    fromName,
		To:          customer.Email,
		Subject:     subject,
		TextBody:    mimeutil.CompileTemplate(settings.BodyTemplate, vars),
	}, true
}

// Send dispatches the acknowledgement for a freshly created ticket, threaded
// into the originating conversation. Failures are logged and swallowed: a
// missing confirmation email must never fail the ingestion of the ticket.
func (a *Acknowledger) Send(ctx context.Context, token string, account *models.MailAccount, ticket *models.Ticket, customer *models.Customer, threadID string) {
	settings, err := a.settings.GetByTenant(ctx, account.TenantID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			a.logger.Printf("Failed to load reply settings for tenant %s: %v", account.TenantID, err)
		}
		return
	}

	outbound, ok := ComposeAcknowledgement(settings, account, ticket, customer)
	if !ok {
		return
	}

	if err := a.mailbox.Send(ctx, token, mimeutil.BuildRaw(outbound), threadID); err != nil {
		a.logger.Printf("Failed to send acknowledgement for ticket %s: %v", ticket.Number, err)
		return
	}
	acknowledgementsSent.Inc()
}
