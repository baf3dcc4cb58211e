package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/maildesk-io/maildesk/internal/config"
	"github.com/maildesk-io/maildesk/internal/models"
	"github.com/maildesk-io/maildesk/internal/provider"
	"github.com/maildesk-io/maildesk/internal/repository"
)

// AccountStats summarizes one account's sync run.
type AccountStats struct {
	Synced  int `json:"synced"`
	Created int `json:"created"`
	Failed  int `json:"failed"`
}

// Stats aggregates a multi-account sync run.
type Stats struct {
	Accounts int `json:"accounts"`
	Synced   int `json:"synced"`
	Created  int `json:"created"`
	Failed   int `json:"failed"`
}

// Service orchestrates mailbox polling: it exchanges credentials for access
// tokens, lists candidate messages, and feeds them to the processor. One
// account's failure never blocks the others.
type Service struct {
	accounts  *repository.MailAccountRepository
	processor *Processor
	mailbox   provider.Mailbox
	provider  config.ProviderConfig
	sync      config.SyncConfig
	logger    *log.Logger
}

// NewService creates the sync service.
func NewService(accounts *repository.MailAccountRepository, processor *Processor, mailbox provider.Mailbox, providerCfg config.ProviderConfig, syncCfg config.SyncConfig) *Service {
	return &Service{
		accounts:  accounts,
		processor: processor,
		mailbox:   mailbox,
		provider:  providerCfg,
		sync:      syncCfg,
		logger:    log.New(log.Writer(), "[Sync] ", log.LstdFlags),
	}
}

// SyncAll polls every active account sequentially. Per-account failures are
// recorded in the stats and logged; the run itself only fails when no
// accounts could be listed.
func (s *Service) SyncAll(ctx context.Context) (*Stats, error) {
	accounts, err := s.accounts.GetActiveAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active accounts: %w", err)
	}

	stats := &Stats{Accounts: len(accounts)}
	for _, account := range accounts {
		acctStats, err := s.SyncAccount(ctx, account)
		if err != nil {
			s.logger.Printf("Sync failed for account %s (tenant %s): %v", account.EmailAddress, account.TenantID, err)
			stats.Failed++
			continue
		}
		stats.Synced += acctStats.Synced
		stats.Created += acctStats.Created
		stats.Failed += acctStats.Failed
	}
	return stats, nil
}

// SyncForUser polls the single active account of one user, for the
// interactive "sync now" path.
func (s *Service) SyncForUser(ctx context.Context, tenantID, userID string) (*AccountStats, error) {
	account, err := s.accounts.GetActiveForUser(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("no active mail account connected")
		}
		return nil, fmt.Errorf("failed to load mail account: %w", err)
	}
	return s.SyncAccount(ctx, account)
}

// SyncAccount runs one full poll cycle for an account under the configured
// per-account timeout. Messages fail individually; an auth or list failure
// aborts the account.
func (s *Service) SyncAccount(ctx context.Context, account *models.MailAccount) (*AccountStats, error) {
	started := time.Now()

	client, ok := s.provider.ClientFor(account.TenantID)
	if !ok {
		err := &provider.AuthError{TenantID: account.TenantID, Err: errors.New("no OAuth client configured")}
		syncRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	refreshToken, err := s.accounts.RefreshCredential(account)
	if err != nil {
		syncRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to unseal account credential: %w", err)
	}

	runCtx := ctx
	if s.sync.AccountTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.sync.AccountTimeout)
		defer cancel()
	}

	token, err := s.mailbox.AccessToken(runCtx, account.TenantID, client.ClientID, client.ClientSecret, refreshToken)
	if err != nil {
		syncRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}

	refs, err := s.mailbox.ListMessages(runCtx, token, s.buildQuery(account), s.sync.MaxMessages)
	if err != nil {
		syncRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	stats := &AccountStats{}
	for _, ref := range refs {
		result, err := s.processor.ProcessMessage(runCtx, token, account, ref)
		if err != nil {
			// A dead context means the whole account run is over; anything
			// else is a single bad message.
			if runCtx.Err() != nil {
				stats.Failed++
				s.logger.Printf("Aborting sync for account %s: %v", account.EmailAddress, runCtx.Err())
				break
			}
			stats.Failed++
			s.logger.Printf("Failed to process message %s for account %s: %v", ref.ID, account.EmailAddress, err)
			continue
		}
		switch result.Outcome {
		case OutcomeCreated:
			stats.Created++
			stats.Synced++
		case OutcomeAppended:
			stats.Synced++
		}
	}

	// The run context may already be expired; the bookkeeping write uses the
	// caller's context instead.
	if err := s.accounts.UpdateLastSync(ctx, account.ID, time.Now()); err != nil {
		s.logger.Printf("Failed to record last sync for account %s: %v", account.EmailAddress, err)
	}

	syncDuration.Observe(time.Since(started).Seconds())
	syncRuns.WithLabelValues("ok").Inc()
	return stats, nil
}

// buildQuery composes the provider search query. Unread mail is always
// fetched; the rescan window additionally re-examines recent mail that was
// marked read outside our control, relying on the duplicate check to make
// re-processing a no-op. Group accounts scope the query to mail delivered to
// the mirrored group address.
func (s *Service) buildQuery(account *models.MailAccount) string {
	days := s.sync.RescanWindowDays
	if days <= 0 {
		days = 30
	}
	base := fmt.Sprintf("(is:unread OR newer_than:%dd)", days)
	if account.UsesGroupAddress() {
		return fmt.Sprintf("deliveredto:%s %s", *account.GroupAddress, base)
	}
	return base
}
