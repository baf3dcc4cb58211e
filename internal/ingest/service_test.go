package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maildesk-io/maildesk/internal/config"
	"github.com/maildesk-io/maildesk/internal/provider"
	"github.com/maildesk-io/maildesk/internal/repository"
	"github.com/maildesk-io/maildesk/internal/secrets"
)

var accountCols = []string{"id", "tenant_id", "user_id", "email_address", "group_address",
	"refresh_token_sealed", "is_active", "last_sync_at", "created_at", "updated_at"}

func newTestService(t *testing.T, mailbox provider.Mailbox, providerCfg config.ProviderConfig) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sdb := sqlx.NewDb(db, "postgres")
	box, err := secrets.NewBox("test-key")
	require.NoError(t, err)
	accounts := repository.NewMailAccountRepository(sdb, box)

	syncCfg := config.SyncConfig{
		AccountTimeout:   time.Minute,
		RescanWindowDays: 30,
		MaxMessages:      100,
	}
	return NewService(accounts, nil, mailbox, providerCfg, syncCfg), mock
}

func TestBuildQuery(t *testing.T) {
	svc, _ := newTestService(t, &fakeMailbox{}, config.ProviderConfig{})

	account := testAccount()
	assert.Equal(t, "(is:unread OR newer_than:30d)", svc.buildQuery(account))

	group := "support@acme.example"
	account.GroupAddress = &group
	assert.Equal(t, "deliveredto:support@acme.example (is:unread OR newer_than:30d)", svc.buildQuery(account))
}

func TestBuildQueryDefaultsWindow(t *testing.T) {
	svc, _ := newTestService(t, &fakeMailbox{}, config.ProviderConfig{})
	svc.sync.RescanWindowDays = 0
	assert.Equal(t, "(is:unread OR newer_than:30d)", svc.buildQuery(testAccount()))
}

func TestSyncAccountNoOAuthClient(t *testing.T) {
	svc, _ := newTestService(t, &fakeMailbox{}, config.ProviderConfig{})

	_, err := svc.SyncAccount(context.Background(), testAccount())
	var authErr *provider.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "acme", authErr.TenantID)
}

func TestSyncAllIsolatesAccountFailures(t *testing.T) {
	// Only tenant "acme" has an OAuth client; the "ghost" tenant's account
	// must fail without aborting the run.
	providerCfg := config.ProviderConfig{
		OAuthClients: map[string]config.OAuthClient{
			"acme": {ClientID: "cid", ClientSecret: "cs"},
		},
	}
	mailbox := &emptyMailbox{}
	svc, mock := newTestService(t, mailbox, providerCfg)

	box, err := secrets.NewBox("test-key")
	require.NoError(t, err)
	sealed, err := box.SealString("rt")
	require.NoError(t, err)

	now := time.Now()
	mock.ExpectQuery(`FROM mail_accounts WHERE is_active`).
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow(int64(1), "acme", "u1", "bob@acme.example", nil, sealed, true, nil, now, now).
			AddRow(int64(2), "ghost", "u2", "eve@ghost.example", nil, sealed, true, nil, now, now))
	// Successful account records its sync time.
	mock.ExpectExec(`UPDATE mail_accounts SET last_sync_at`).
		WithArgs(int64(1), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	stats, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Accounts)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Synced)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncForUserNoAccount(t *testing.T) {
	svc, mock := newTestService(t, &fakeMailbox{}, config.ProviderConfig{})

	mock.ExpectQuery(`FROM mail_accounts WHERE tenant_id`).
		WillReturnRows(sqlmock.NewRows(accountCols))

	_, err := svc.SyncForUser(context.Background(), "acme", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no active mail account")
}

// emptyMailbox yields a valid token and an empty mailbox.
type emptyMailbox struct{}

func (e *emptyMailbox) AccessToken(ctx context.Context, tenantID, clientID, clientSecret, refreshToken string) (string, error) {
	return "at", nil
}

func (e *emptyMailbox) ListMessages(ctx context.Context, token, query string, maxResults int) ([]provider.MessageRef, error) {
	return nil, nil
}

func (e *emptyMailbox) GetMessage(ctx context.Context, token, id string) (*provider.Message, error) {
	return &provider.Message{}, nil
}

func (e *emptyMailbox) GetAttachment(ctx context.Context, token, messageID, attachmentID string) ([]byte, error) {
	return nil, nil
}

func (e *emptyMailbox) Send(ctx context.Context, token, raw, threadID string) error { return nil }

func (e *emptyMailbox) ModifyLabels(ctx context.Context, token, messageID string, add, remove []string) error {
	return nil
}
