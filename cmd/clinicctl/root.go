package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"clinicbook/internal/config"
	"clinicbook/internal/database"
	"clinicbook/internal/logging"
	"clinicbook/internal/repository"
	"clinicbook/internal/security"
	"clinicbook/internal/service"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "clinicctl",
		Short: "Administer the clinic booking backend",
		Long: `Maintenance commands for the clinic booking backend. Configuration is read
the same way as the server: config.yaml, .env and environment variables.

Examples:
  clinicctl migrate
  clinicctl promote admin@example.com
  clinicctl demote admin@example.com
  clinicctl cleanup`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newMigrateCmd(),
		newPromoteCmd(),
		newDemoteCmd(),
		newCleanupCmd(),
	)
	return root
}

// app is what every subcommand needs: a migrated database and the account service
type app struct {
	db       *database.DB
	accounts *service.AccountService
	logger   *slog.Logger
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log)

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Maintenance never sends mail
	emails := service.NewEmailService(service.NewLogMailer(logger), cfg.Mail.FrontendURL, cfg.Auth.ResetTokenTTL, logger)
	accounts := service.NewAccountService(
		repository.NewAccountRepository(db),
		repository.NewPasswordResetRepository(db),
		security.NewPasswordHasher(cfg.Auth.BcryptCost),
		security.NewSessionTokens(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL),
		emails,
		logger,
		service.AccountOptions{ResetTokenTTL: cfg.Auth.ResetTokenTTL, MinPasswordLength: cfg.Auth.MinPasswordLength},
	)

	return &app{db: db, accounts: accounts, logger: logger}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}

// withApp opens the app for the duration of fn
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
