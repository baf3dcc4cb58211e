package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Attachment describes one file attached to a message. StoragePath is a pure
// function of tenant/ticket/message/filename, so re-uploads land on the same
// object.
type Attachment struct {
	StoragePath string `json:"storage_path"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// AttachmentList is stored as a JSONB column on the message row.
type AttachmentList []Attachment

// Value implements driver.Valuer.
func (l AttachmentList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attachments: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *AttachmentList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported attachment list source type %T", src)
	}
	return json.Unmarshal(data, l)
}

// Message represents a single email (or agent note) on a ticket.
// ProviderMessageID is nil for agent-authored notes and replies; for inbound
// mail it is unique per ticket, which is what makes re-scans idempotent.
type Message struct {
	ID                int64          `json:"id" db:"id"`
	TenantID          string         `json:"tenant_id" db:"tenant_id"`
	TicketID          int64          `json:"ticket_id" db:"ticket_id"`
	SenderEmail       string         `json:"sender_email" db:"sender_email"`
	SenderName        *string        `json:"sender_name,omitempty" db:"sender_name"`
	Body              string         `json:"body" db:"body"`
	BodyHTML          *string        `json:"body_html,omitempty" db:"body_html"`
	IsCustomer        bool           `json:"is_customer" db:"is_customer"`
	IsInternalNote    bool           `json:"is_internal_note" db:"is_internal_note"`
	ProviderMessageID *string        `json:"provider_message_id,omitempty" db:"provider_message_id"`
	Attachments       AttachmentList `json:"attachments" db:"attachments"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
}
