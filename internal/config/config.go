package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Provider ProviderConfig `mapstructure:"provider"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Ticket   TicketConfig   `mapstructure:"ticket"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ProviderConfig describes the upstream mail provider API plus the
// tenant-scoped OAuth clients used to refresh mailbox credentials.
type ProviderConfig struct {
	BaseURL      string                 `mapstructure:"base_url"`
	TokenURL     string                 `mapstructure:"token_url"`
	Timeout      time.Duration          `mapstructure:"timeout"`
	OAuthClients map[string]OAuthClient `mapstructure:"oauth_clients"`
}

// OAuthClient is one tenant's registered OAuth application.
type OAuthClient struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type StorageConfig struct {
	Type  string `mapstructure:"type"`
	Local struct {
		Path       string `mapstructure:"path"`
		PublicBase string `mapstructure:"public_base"`
		SigningKey string `mapstructure:"signing_key"`
	} `mapstructure:"local"`
	Attachments struct {
		MaxSize int64 `mapstructure:"max_size"`
	} `mapstructure:"attachments"`
}

type TicketConfig struct {
	NumberPrefix    string `mapstructure:"number_prefix"`
	NumberMinDigits int    `mapstructure:"number_min_digits"`
}

// SyncConfig controls the poll loop. RescanWindowDays deliberately keeps the
// list query re-examining already-read recent mail; see the sync service for
// the edge case it guards against.
type SyncConfig struct {
	Schedule         string        `mapstructure:"schedule"`
	AccountTimeout   time.Duration `mapstructure:"account_timeout"`
	RescanWindowDays int           `mapstructure:"rescan_window_days"`
	MaxMessages      int           `mapstructure:"max_messages"`
	SchedulerSecret  string        `mapstructure:"scheduler_secret"`
}

type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	CredentialKey string `mapstructure:"credential_key"`
}

// Load initializes the configuration with hot reload support
func Load(configPath string) error {
	var err error
	once.Do(func() {
		v := viper.New()
		v.SetConfigType("yaml")
		v.SetConfigName("config")
		v.AddConfigPath(configPath)

		setDefaults(v)

		if readErr := v.ReadInConfig(); readErr != nil {
			// Config file is optional; environment variables can carry everything.
			if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
				err = fmt.Errorf("failed to read config: %w", readErr)
				return
			}
		}

		v.SetEnvPrefix("MAILDESK")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		cfg = &Config{}
		if err = v.Unmarshal(cfg); err != nil {
			err = fmt.Errorf("failed to unmarshal config: %w", err)
			return
		}

		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			mu.Lock()
			defer mu.Unlock()
			newCfg := &Config{}
			if err := v.Unmarshal(newCfg); err != nil {
				fmt.Printf("Failed to reload config: %v\n", err)
				return
			}
			cfg = newCfg
		})
	})

	return err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "maildesk")
	v.SetDefault("app.env", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("provider.timeout", 30*time.Second)
	v.SetDefault("storage.type", "filesystem")
	v.SetDefault("storage.local.path", "data/attachments")
	v.SetDefault("ticket.number_prefix", "TKT-")
	v.SetDefault("ticket.number_min_digits", 4)
	v.SetDefault("sync.schedule", "0 */5 * * * *")
	v.SetDefault("sync.account_timeout", 2*time.Minute)
	v.SetDefault("sync.rescan_window_days", 30)
	v.SetDefault("sync.max_messages", 100)
}

// Get returns the current configuration (thread-safe)
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetServerAddr returns the server listen address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction returns true if running in production mode
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// ClientFor returns the OAuth client registered for a tenant, or false when
// the tenant has none configured.
func (c *ProviderConfig) ClientFor(tenantID string) (OAuthClient, bool) {
	client, ok := c.OAuthClients[tenantID]
	return client, ok
}

// LoadFromFile loads configuration from a specific file (useful for testing)
func LoadFromFile(configFile string) error {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}
