// Package tasks holds the concrete scheduled jobs.
package tasks

import (
	"context"
	"log"
	"time"

	"github.com/maildesk-io/maildesk/internal/ingest"
)

// MailSyncTask polls all active mail accounts on a fixed schedule. The
// per-account timeout lives inside the sync service; the task timeout bounds
// the whole batch.
type MailSyncTask struct {
	service  *ingest.Service
	schedule string
	timeout  time.Duration
	logger   *log.Logger
}

// NewMailSyncTask creates the periodic sync task.
func NewMailSyncTask(service *ingest.Service, schedule string, timeout time.Duration) *MailSyncTask {
	return &MailSyncTask{
		service:  service,
		schedule: schedule,
		timeout:  timeout,
		logger:   log.New(log.Writer(), "[MailSync] ", log.LstdFlags),
	}
}

func (t *MailSyncTask) Name() string {
	return "mail_sync"
}

func (t *MailSyncTask) Schedule() string {
	return t.schedule
}

func (t *MailSyncTask) Timeout() time.Duration {
	return t.timeout
}

// Run performs one batch sync across all active accounts.
func (t *MailSyncTask) Run(ctx context.Context) error {
	stats, err := t.service.SyncAll(ctx)
	if err != nil {
		return err
	}
	t.logger.Printf("Synced %d accounts: %d messages, %d tickets created, %d failures",
		stats.Accounts, stats.Synced, stats.Created, stats.Failed)
	return nil
}
