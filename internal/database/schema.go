package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema holds the DDL applied by Migrate. Statements are idempotent so the
// migrate command can run on every deploy.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS mail_accounts (
		id BIGSERIAL PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		email_address TEXT NOT NULL,
		group_address TEXT,
		refresh_token_sealed BYTEA NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_sync_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// One active account per user; disconnected rows stay for audit.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_mail_accounts_active_user
		ON mail_accounts (tenant_id, user_id) WHERE is_active`,

	`CREATE TABLE IF NOT EXISTS customers (
		id BIGSERIAL PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		email TEXT NOT NULL,
		name TEXT,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT customers_tenant_email_key UNIQUE (tenant_id, email)
	)`,

	`CREATE TABLE IF NOT EXISTS tickets (
		id BIGSERIAL PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		number TEXT NOT NULL,
		customer_id BIGINT NOT NULL REFERENCES customers(id),
		subject TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		priority TEXT NOT NULL DEFAULT 'medium',
		thread_id TEXT,
		opening_message_id TEXT,
		tags TEXT[] NOT NULL DEFAULT '{}',
		due_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT tickets_tenant_number_key UNIQUE (tenant_id, number)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tickets_thread
		ON tickets (tenant_id, thread_id) WHERE thread_id IS NOT NULL`,

	// Thread-less mail re-surfaced by the rescan window resolves through the
	// message that opened the ticket.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_tickets_opening_message
		ON tickets (tenant_id, opening_message_id) WHERE opening_message_id IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		ticket_id BIGINT NOT NULL REFERENCES tickets(id),
		sender_email TEXT NOT NULL,
		sender_name TEXT,
		body TEXT NOT NULL,
		body_html TEXT,
		is_customer BOOLEAN NOT NULL DEFAULT FALSE,
		is_internal_note BOOLEAN NOT NULL DEFAULT FALSE,
		provider_message_id TEXT,
		attachments JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// Re-scanning the same provider message must be a no-op. Partial: agent
	// notes and replies carry no provider id.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_provider_unique
		ON messages (ticket_id, provider_message_id) WHERE provider_message_id IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS reply_settings (
		tenant_id TEXT PRIMARY KEY,
		subject_template TEXT NOT NULL DEFAULT '',
		body_template TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS ticket_number_counter (
		tenant_id TEXT PRIMARY KEY,
		counter BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS attachment_blobs (
		path TEXT PRIMARY KEY,
		content_type TEXT NOT NULL,
		data BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
