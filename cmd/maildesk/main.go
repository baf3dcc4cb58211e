package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/maildesk-io/maildesk/internal/api"
	"github.com/maildesk-io/maildesk/internal/auth"
	"github.com/maildesk-io/maildesk/internal/config"
	"github.com/maildesk-io/maildesk/internal/database"
	"github.com/maildesk-io/maildesk/internal/ingest"
	"github.com/maildesk-io/maildesk/internal/provider"
	"github.com/maildesk-io/maildesk/internal/repository"
	"github.com/maildesk-io/maildesk/internal/runner"
	"github.com/maildesk-io/maildesk/internal/runner/tasks"
	"github.com/maildesk-io/maildesk/internal/secrets"
	"github.com/maildesk-io/maildesk/internal/storage"
	"github.com/maildesk-io/maildesk/internal/ticketnumber"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "maildesk",
		Short: "Multi-tenant helpdesk with inbound email ingestion",
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yaml")

	root.AddCommand(serveCmd(), syncCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled mail sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.db.Close()
			return app.serve()
		},
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one batch sync across all active accounts and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.db.Close()

			stats, err := app.sync.SyncAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Synced %d accounts: %d messages, %d tickets created, %d failures\n",
				stats.Accounts, stats.Synced, stats.Created, stats.Failed)
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(configPath); err != nil {
				return err
			}
			db, err := database.Connect(config.Get().Database)
			if err != nil {
				return err
			}
			defer db.Close()
			return database.Migrate(cmd.Context(), db)
		},
	}
}

type app struct {
	cfg    *config.Config
	db     *sqlx.DB
	sync   *ingest.Service
	jwt    *auth.JWTManager
	logger *log.Logger
}

// buildApp loads configuration and wires the full dependency graph.
func buildApp() (*app, error) {
	if err := config.Load(configPath); err != nil {
		return nil, err
	}
	cfg := config.Get()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	box, err := secrets.NewBox(cfg.Auth.CredentialKey)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize credential sealing: %w", err)
	}

	blobs, err := buildStorage(cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	accounts := repository.NewMailAccountRepository(db, box)
	customers := repository.NewCustomerRepository(db)
	tickets := repository.NewTicketRepository(db)
	messages := repository.NewMessageRepository(db)
	replySettings := repository.NewReplySettingsRepository(db)

	allocator := ticketnumber.NewAllocator(
		ticketnumber.NewDBStore(db),
		cfg.Ticket.NumberPrefix,
		cfg.Ticket.NumberMinDigits,
	)

	mailbox := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.TokenURL, cfg.Provider.Timeout)
	resolver := ingest.NewResolver(tickets, customers, allocator)
	acknowledger := ingest.NewAcknowledger(replySettings, mailbox)
	processor := ingest.NewProcessor(mailbox, resolver, messages, acknowledger, blobs)
	syncService := ingest.NewService(accounts, processor, mailbox, cfg.Provider, cfg.Sync)

	return &app{
		cfg:    cfg,
		db:     db,
		sync:   syncService,
		jwt:    auth.NewJWTManager(cfg.Auth.JWTSecret, 24*time.Hour),
		logger: log.New(log.Writer(), "[Maildesk] ", log.LstdFlags),
	}, nil
}

// buildStorage registers the known backend types and creates the configured
// one.
func buildStorage(cfg *config.Config, db *sqlx.DB) (storage.Backend, error) {
	signer := storage.NewURLSigner(cfg.Storage.Local.PublicBase, []byte(cfg.Storage.Local.SigningKey))

	factory := storage.NewFactory()
	factory.Register("filesystem", func(conf map[string]interface{}) (storage.Backend, error) {
		root, _ := conf["path"].(string)
		return storage.NewFilesystemBackend(root, signer)
	})
	factory.Register("database", func(conf map[string]interface{}) (storage.Backend, error) {
		return storage.NewDatabaseBackend(db, signer), nil
	})

	backend, err := factory.Create(cfg.Storage.Type, map[string]interface{}{
		"path": cfg.Storage.Local.Path,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage backend: %w", err)
	}
	return backend, nil
}

// serve runs the HTTP server and the cron runner until SIGINT/SIGTERM.
func (a *app) serve() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncTask := tasks.NewMailSyncTask(a.sync, a.cfg.Sync.Schedule, a.cfg.Sync.AccountTimeout*10)
	jobs := runner.New(syncTask)
	if err := jobs.Start(ctx); err != nil {
		return err
	}

	router := api.NewRouter(a.cfg, a.db, a.sync, a.jwt)
	server := &http.Server{
		Addr:         a.cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Printf("Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		jobs.Stop()
		return err
	case sig := <-sigCh:
		a.logger.Printf("Received %v, shutting down", sig)
	}

	cancel()
	jobs.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
