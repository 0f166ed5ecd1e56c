package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"clinicbook/internal/config"
	"clinicbook/internal/database"
	"clinicbook/internal/handlers"
	"clinicbook/internal/logging"
	"clinicbook/internal/metrics"
	"clinicbook/internal/repository"
	"clinicbook/internal/security"
	"clinicbook/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database (supports sqlite, postgres, pgx, mysql)
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	logger.Info("database connection established", "type", cfg.Database.Type)

	if err := db.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := db.MigrationVersion(ctx)
	if err != nil {
		return err
	}
	logger.Info("migrations completed", "version", version)

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)

	// Initialize services
	mailer, err := service.NewMailer(ctx, cfg.Mail, logger)
	if err != nil {
		return err
	}
	emailService := service.NewEmailService(mailer, cfg.Mail.FrontendURL, cfg.Auth.ResetTokenTTL, logger)
	sessions := security.NewSessionTokens(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)

	accountService := service.NewAccountService(
		accountRepo,
		resetRepo,
		security.NewPasswordHasher(cfg.Auth.BcryptCost),
		sessions,
		emailService,
		logger,
		service.AccountOptions{
			ResetTokenTTL:           cfg.Auth.ResetTokenTTL,
			MinPasswordLength:       cfg.Auth.MinPasswordLength,
			ConcealAccountExistence: cfg.Auth.ConcealAccountExistence,
		},
	)
	catalogService := service.NewCatalogService(serviceRepo)
	appointmentService := service.NewAppointmentService(appointmentRepo, serviceRepo, accountRepo, emailService, logger)

	limiter, closeLimiter, err := newLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLimiter()

	router := handlers.NewRouter(handlers.RouterDeps{
		Accounts:       accountService,
		Catalog:        catalogService,
		Appointments:   appointmentService,
		Sessions:       sessions,
		Limiter:        limiter,
		Metrics:        metrics.New(),
		DB:             db,
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,

		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start background reset token cleanup
	go cleanupExpiredResets(ctx, accountService, logger)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// newLimiter uses Redis when redis.addr is set, otherwise an in-process limiter
func newLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (security.Limiter, func(), error) {
	if cfg.Redis.Addr == "" {
		rl := security.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		return rl, rl.Close, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("rate limiting backed by redis", "addr", cfg.Redis.Addr)
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close redis client", "error", err)
		}
	}
	return security.NewRedisLimiter(client, cfg.RateLimit.Requests, cfg.RateLimit.Window), closeFn, nil
}

// cleanupExpiredResets periodically removes expired and used reset tokens
func cleanupExpiredResets(ctx context.Context, accounts *service.AccountService, logger *slog.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := accounts.CleanupExpiredResets(ctx)
			if err != nil {
				logger.Error("error cleaning up password resets", "error", err)
				continue
			}
			logger.Info("password resets cleaned up", "deleted", n)
		}
	}
}
