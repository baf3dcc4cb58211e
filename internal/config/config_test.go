package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
app:
  name: maildesk
  env: production
database:
  host: db.internal
  name: maildesk
  user: maildesk
  password: secret
provider:
  token_url: https://oauth2.example/token
  oauth_clients:
    acme:
      client_id: cid-1
      client_secret: cs-1
sync:
  scheduler_secret: s3cret
  rescan_window_days: 14
ticket:
  number_prefix: "HD-"
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o644))
	require.NoError(t, LoadFromFile(configFile))

	cfg := Get()
	require.NotNil(t, cfg)
	assert.True(t, cfg.App.IsProduction())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 14, cfg.Sync.RescanWindowDays)
	assert.Equal(t, "HD-", cfg.Ticket.NumberPrefix)

	// Defaults fill the unset keys.
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 4, cfg.Ticket.NumberMinDigits)
	assert.Equal(t, 100, cfg.Sync.MaxMessages)
	assert.Equal(t, "0 */5 * * * *", cfg.Sync.Schedule)

	client, ok := cfg.Provider.ClientFor("acme")
	require.True(t, ok)
	assert.Equal(t, "cid-1", client.ClientID)
	_, ok = cfg.Provider.ClientFor("unknown")
	assert.False(t, ok)
}

func TestGetDSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "localhost", Port: 5432, Name: "maildesk",
		User: "u", Password: "p", SSLMode: "disable",
	}
	assert.Equal(t, "host=localhost port=5432 user=u password=p dbname=maildesk sslmode=disable", c.GetDSN())
}

func TestGetServerAddr(t *testing.T) {
	c := ServerConfig{Host: "0.0.0.0", Port: 8080}
	assert.Equal(t, "0.0.0.0:8080", c.GetServerAddr())
}
