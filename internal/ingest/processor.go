package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/maildesk-io/maildesk/internal/mimeutil"
	"github.com/maildesk-io/maildesk/internal/models"
	"github.com/maildesk-io/maildesk/internal/provider"
	"github.com/maildesk-io/maildesk/internal/repository"
	"github.com/maildesk-io/maildesk/internal/storage"
)

// Outcome classifies what ProcessMessage did with one inbound message.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"   // new ticket opened
	OutcomeAppended  Outcome = "appended"  // message added to an existing ticket
	OutcomeDuplicate Outcome = "duplicate" // already ingested, skipped
	OutcomeSkipped   Outcome = "skipped"   // self-sent or otherwise not ingestable
)

// Result reports the outcome of processing one message.
type Result struct {
	Outcome Outcome
	Ticket  *models.Ticket
}

// Processor ingests one fetched message: classify MIME, resolve to a ticket,
// insert idempotently, extract attachments, acknowledge new tickets, and
// archive the provider copy.
type Processor struct {
	mailbox      provider.Mailbox
	resolver     *Resolver
	messages     *repository.MessageRepository
	acknowledger *Acknowledger
	blobs        storage.Backend
	htmlPolicy   *bluemonday.Policy
	logger       *log.Logger
}

// NewProcessor creates a message processor.
func NewProcessor(mailbox provider.Mailbox, resolver *Resolver, messages *repository.MessageRepository, acknowledger *Acknowledger, blobs storage.Backend) *Processor {
	return &Processor{
		mailbox:      mailbox,
		resolver:     resolver,
		messages:     messages,
		acknowledger: acknowledger,
		blobs:        blobs,
		htmlPolicy:   bluemonday.UGCPolicy(),
		logger:       log.New(log.Writer(), "[Processor] ", log.LstdFlags),
	}
}

// ProcessMessage fetches and ingests one message for an account. Fetch and
// database failures abort the message; attachment failures only skip the
// attachment, and acknowledgement or archive failures are logged and ignored.
func (p *Processor) ProcessMessage(ctx context.Context, token string, account *models.MailAccount, ref provider.MessageRef) (*Result, error) {
	msg, err := p.mailbox.GetMessage(ctx, token, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message %s: %w", ref.ID, err)
	}

	senderEmail, senderName := parseSender(msg.Header("From"))
	if senderEmail == "" {
		p.logger.Printf("Skipping message %s: no parseable From header", msg.ID)
		messagesProcessed.WithLabelValues(string(OutcomeSkipped)).Inc()
		return &Result{Outcome: OutcomeSkipped}, nil
	}
	if p.isSelf(account, senderEmail) {
		messagesProcessed.WithLabelValues(string(OutcomeSkipped)).Inc()
		return &Result{Outcome: OutcomeSkipped}, nil
	}

	content := mimeutil.ExtractContent(msg)
	in := &Inbound{
		ProviderID:  msg.ID,
		ThreadID:    msg.ThreadID,
		Subject:     msg.Header("Subject"),
		SenderEmail: senderEmail,
		SenderName:  senderName,
		Body:        content.Body,
		HTMLBody:    content.HTMLBody,
	}

	resolution, err := p.resolver.Resolve(ctx, account.TenantID, in)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve message %s: %w", msg.ID, err)
	}
	ticket := resolution.Ticket

	if resolution.Kind != NewTicket {
		exists, err := p.messages.ExistsByProviderID(ctx, ticket.ID, msg.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check message %s for duplicates: %w", msg.ID, err)
		}
		if exists {
			messagesProcessed.WithLabelValues(string(OutcomeDuplicate)).Inc()
			p.archive(ctx, token, msg.ID)
			return &Result{Outcome: OutcomeDuplicate, Ticket: ticket}, nil
		}
	}

	record := &models.Message{
		TenantID:          account.TenantID,
		TicketID:          ticket.ID,
		SenderEmail:       senderEmail,
		Body:              content.Body,
		IsCustomer:        true,
		ProviderMessageID: &msg.ID,
	}
	if senderName != "" {
		record.SenderName = &senderName
	}
	if content.HTMLBody != "" {
		// Inbound HTML is untrusted and later rendered to agents.
		clean := p.htmlPolicy.Sanitize(content.HTMLBody)
		record.BodyHTML = &clean
	}

	messageID, err := p.messages.Create(ctx, record)
	if errors.Is(err, repository.ErrDuplicate) {
		// Concurrent sync inserted the same provider message first.
		messagesProcessed.WithLabelValues(string(OutcomeDuplicate)).Inc()
		p.archive(ctx, token, msg.ID)
		return &Result{Outcome: OutcomeDuplicate, Ticket: ticket}, nil
	}
	if err != nil {
		return nil, &WriteError{Op: "store message", Err: err}
	}

	if len(content.Attachments) > 0 {
		p.storeAttachments(ctx, token, account, ticket, messageID, msg.ID, content.Attachments)
	}

	if resolution.Kind == NewTicket {
		p.acknowledger.Send(ctx, token, account, ticket, resolution.Customer, msg.ThreadID)
	}
	p.archive(ctx, token, msg.ID)

	outcome := OutcomeAppended
	if resolution.Kind == NewTicket {
		outcome = OutcomeCreated
		ticketsCreated.Inc()
	}
	messagesProcessed.WithLabelValues(string(outcome)).Inc()
	return &Result{Outcome: outcome, Ticket: ticket}, nil
}

// storeAttachments downloads and persists each attachment, then records the
// full list on the message row in one update. A failing attachment is logged
// and skipped so the rest of the message survives.
func (p *Processor) storeAttachments(ctx context.Context, token string, account *models.MailAccount, ticket *models.Ticket, messageID int64, providerMessageID string, parts []mimeutil.AttachmentPart) {
	stored := make(models.AttachmentList, 0, len(parts))
	seen := make(map[string]int)

	for _, part := range parts {
		data := part.Data
		if data == nil {
			var err error
			data, err = p.mailbox.GetAttachment(ctx, token, providerMessageID, part.AttachmentID)
			if err != nil {
				p.logger.Printf("Failed to download attachment %q of message %s: %v", part.Filename, providerMessageID, err)
				continue
			}
		}

		filename := mimeutil.SanitizeFilename(part.Filename)
		if n := seen[filename]; n > 0 {
			filename = fmt.Sprintf("%d_%s", n, filename)
		}
		seen[mimeutil.SanitizeFilename(part.Filename)]++

		path := storage.ObjectPath(account.TenantID, ticket.ID, messageID, filename)
		if err := p.blobs.Store(ctx, path, part.ContentType, data); err != nil {
			p.logger.Printf("Failed to store attachment %q of message %s: %v", filename, providerMessageID, err)
			continue
		}
		attachmentsStored.Inc()

		stored = append(stored, models.Attachment{
			StoragePath: path,
			Filename:    filename,
			ContentType: part.ContentType,
			Size:        int64(len(data)),
		})
	}

	if len(stored) == 0 {
		return
	}
	if err := p.messages.UpdateAttachments(ctx, messageID, stored); err != nil {
		p.logger.Printf("Failed to record attachments on message %d: %v", messageID, err)
	}
}

// archive marks the provider copy as handled so the next poll's unread query
// skips it. Best effort: the rescan window plus the duplicate check cover a
// failure here.
func (p *Processor) archive(ctx context.Context, token, providerMessageID string) {
	if err := p.mailbox.ModifyLabels(ctx, token, providerMessageID, nil, []string{"UNREAD", "INBOX"}); err != nil {
		p.logger.Printf("Failed to archive message %s: %v", providerMessageID, err)
	}
}

// isSelf reports whether the sender is the polled mailbox or its group
// address, which keeps our own acknowledgements from opening tickets.
func (p *Processor) isSelf(account *models.MailAccount, senderEmail string) bool {
	if strings.EqualFold(senderEmail, account.EmailAddress) {
		return true
	}
	return account.UsesGroupAddress() && strings.EqualFold(senderEmail, *account.GroupAddress)
}

// parseSender extracts the address and display name from a From header.
// Unparseable headers fall back to the raw value when it looks like a bare
// address.
func parseSender(from string) (email, name string) {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		trimmed := strings.TrimSpace(from)
		if strings.Contains(trimmed, "@") && !strings.ContainsAny(trimmed, " <>") {
			return strings.ToLower(trimmed), ""
		}
		return "", ""
	}
	return strings.ToLower(addr.Address), addr.Name
}
