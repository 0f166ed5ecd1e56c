package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clinicbook/internal/models"
	"clinicbook/internal/repository"
	"clinicbook/internal/security"
	"clinicbook/internal/validation"
)

// AccountStore persists accounts
type AccountStore interface {
	Create(ctx context.Context, acc *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	ConfirmVerification(ctx context.Context, tokenHash string) (bool, error)
	SetAdmin(ctx context.Context, email string, isAdmin bool) (bool, error)
}

// PasswordResetStore persists hashed reset tokens
type PasswordResetStore interface {
	Replace(ctx context.Context, accountID int64, tokenHash string, expiresAt time.Time) (*models.PasswordReset, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error)
	Redeem(ctx context.Context, tokenHash, passwordHash string, now time.Time) (bool, error)
	DeleteStale(ctx context.Context, now time.Time) (int64, error)
}

// AccountNotifier sends the emails of the credential lifecycle
type AccountNotifier interface {
	SendVerificationEmail(ctx context.Context, toEmail, toName, token string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, toName, token string) error
}

// AccountOptions tunes the account lifecycle
type AccountOptions struct {
	ResetTokenTTL           time.Duration
	MinPasswordLength       int
	ConcealAccountExistence bool
}

// RegisterInput is the payload of a registration
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

// LoginInput is the payload of a login
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AccountService handles registration, verification, login and password resets
type AccountService struct {
	accounts AccountStore
	resets   PasswordResetStore
	hasher   *security.PasswordHasher
	sessions *security.SessionTokens
	notifier AccountNotifier
	logger   *slog.Logger
	opts     AccountOptions
	now      func() time.Time
}

// NewAccountService creates a new account service
func NewAccountService(
	accounts AccountStore,
	resets PasswordResetStore,
	hasher *security.PasswordHasher,
	sessions *security.SessionTokens,
	notifier AccountNotifier,
	logger *slog.Logger,
	opts AccountOptions,
) *AccountService {
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = time.Hour
	}
	if opts.MinPasswordLength <= 0 {
		opts.MinPasswordLength = 8
	}
	return &AccountService{
		accounts: accounts,
		resets:   resets,
		hasher:   hasher,
		sessions: sessions,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
	}
}

// Register creates an unverified account and emails its confirmation link
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	existing, err := s.accounts.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateAccount
	}

	if err := s.checkPasswordStrength(in.Password); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	token, err := security.NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	acc, err := s.accounts.Create(ctx, &models.Account{
		Name:                  in.Name,
		Email:                 in.Email,
		PasswordHash:          passwordHash,
		VerificationTokenHash: security.HashToken(token),
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrDuplicateAccount
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.InfoContext(ctx, "account registered", "account_id", acc.ID)

	if err := s.notifier.SendVerificationEmail(ctx, acc.Email, acc.Name, token); err != nil {
		s.logger.WarnContext(ctx, "failed to send verification email", "account_id", acc.ID, "error", err)
	}

	return acc, nil
}

// VerifyAccount redeems a verification token
func (s *AccountService) VerifyAccount(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}

	ok, err := s.accounts.ConfirmVerification(ctx, security.HashToken(token))
	if err != nil {
		return fmt.Errorf("failed to verify account: %w", err)
	}
	if !ok {
		return ErrInvalidToken
	}
	return nil
}

// Login checks credentials and returns a signed session token
func (s *AccountService) Login(ctx context.Context, in LoginInput) (string, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return "", err
	}

	acc, err := s.accounts.GetByEmail(ctx, in.Email)
	if err != nil {
		return "", fmt.Errorf("failed to get account: %w", err)
	}
	if acc == nil {
		return "", ErrAccountNotFound
	}
	if !acc.Verified {
		return "", ErrAccountNotVerified
	}

	ok, err := s.hasher.Compare(acc.PasswordHash, in.Password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	token, err := s.sessions.Issue(acc.ID)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "account logged in", "account_id", acc.ID)
	return token, nil
}

// RequestPasswordReset issues a new reset token for email and sends it.
// Any earlier outstanding token for the account stops working.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	acc, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if acc == nil {
		if s.opts.ConcealAccountExistence {
			s.logger.InfoContext(ctx, "password reset requested for unknown email")
			return nil
		}
		return ErrAccountNotFound
	}

	token, err := security.NewOpaqueToken()
	if err != nil {
		return err
	}

	expiresAt := s.now().Add(s.opts.ResetTokenTTL)
	if _, err := s.resets.Replace(ctx, acc.ID, security.HashToken(token), expiresAt); err != nil {
		return fmt.Errorf("failed to store password reset: %w", err)
	}

	if err := s.notifier.SendPasswordResetEmail(ctx, acc.Email, acc.Name, token); err != nil {
		s.logger.ErrorContext(ctx, "failed to send password reset email", "account_id", acc.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	s.logger.InfoContext(ctx, "password reset requested", "account_id", acc.ID)
	return nil
}

// ValidateResetToken checks a reset token without consuming it
func (s *AccountService) ValidateResetToken(ctx context.Context, token string) error {
	_, err := s.liveReset(ctx, token)
	return err
}

// CompleteReset consumes a reset token and sets a new password
func (s *AccountService) CompleteReset(ctx context.Context, token, newPassword string) error {
	reset, err := s.liveReset(ctx, token)
	if err != nil {
		return err
	}

	if err := s.checkPasswordStrength(newPassword); err != nil {
		return err
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	ok, err := s.resets.Redeem(ctx, reset.TokenHash, passwordHash, s.now())
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	if !ok {
		return ErrInvalidToken
	}

	s.logger.InfoContext(ctx, "password reset completed", "account_id", reset.AccountID)
	return nil
}

// CurrentUser returns the public profile of the account
func (s *AccountService) CurrentUser(ctx context.Context, id int64) (*models.Profile, error) {
	acc, err := s.Account(ctx, id)
	if err != nil {
		return nil, err
	}
	p := acc.Profile()
	return &p, nil
}

// Account loads an account by id
func (s *AccountService) Account(ctx context.Context, id int64) (*models.Account, error) {
	acc, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if acc == nil {
		return nil, ErrAccountNotFound
	}
	return acc, nil
}

// SetAdmin grants or revokes the admin role
func (s *AccountService) SetAdmin(ctx context.Context, email string, isAdmin bool) error {
	ok, err := s.accounts.SetAdmin(ctx, strings.TrimSpace(email), isAdmin)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccountNotFound
	}
	s.logger.InfoContext(ctx, "admin role changed", "email", email, "admin", isAdmin)
	return nil
}

// CleanupExpiredResets deletes expired and consumed reset tokens
func (s *AccountService) CleanupExpiredResets(ctx context.Context) (int64, error) {
	n, err := s.resets.DeleteStale(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup password resets: %w", err)
	}
	return n, nil
}

func (s *AccountService) liveReset(ctx context.Context, token string) (*models.PasswordReset, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	reset, err := s.resets.GetByTokenHash(ctx, security.HashToken(token))
	if err != nil {
		return nil, fmt.Errorf("failed to get password reset: %w", err)
	}
	if reset == nil || reset.IsConsumed() {
		return nil, ErrInvalidToken
	}
	if reset.IsExpired(s.now()) {
		return nil, ErrExpiredToken
	}
	return reset, nil
}

func (s *AccountService) checkPasswordStrength(password string) error {
	if len(strings.TrimSpace(password)) < s.opts.MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, s.opts.MinPasswordLength)
	}
	return nil
}
