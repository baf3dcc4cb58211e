package models

import (
	"time"
)

// ReplySettings holds the per-tenant auto-acknowledgement templates.
// Empty body template means no acknowledgement is sent for new tickets.
type ReplySettings struct {
	TenantID        string    `json:"tenant_id" db:"tenant_id"`
	SubjectTemplate string    `json:"subject_template" db:"subject_template"`
	BodyTemplate    string    `json:"body_template" db:"body_template"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Enabled reports whether the tenant has configured auto-acknowledgement
// content.
func (s *ReplySettings) Enabled() bool {
	return s != nil && s.BodyTemplate != ""
}
