package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clinicbook/internal/database"
	"clinicbook/internal/models"
)

// PasswordResetRepository stores hashed password reset tokens
type PasswordResetRepository struct {
	db *database.DB
}

// NewPasswordResetRepository creates a new password reset repository
func NewPasswordResetRepository(db *database.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// Replace discards the account's outstanding resets and stores a new one
func (r *PasswordResetRepository) Replace(ctx context.Context, accountID int64, tokenHash string, expiresAt time.Time) (*models.PasswordReset, error) {
	now := time.Now().UTC()
	reset := &models.PasswordReset{
		AccountID: accountID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: now,
	}

	err := r.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM password_resets WHERE account_id = ? AND consumed_at IS NULL`, accountID); err != nil {
			return fmt.Errorf("failed to delete outstanding resets: %w", err)
		}

		id, err := tx.ExecReturningID(ctx, `
			INSERT INTO password_resets (account_id, token_hash, expires_at, created_at)
			VALUES (?, ?, ?, ?)
		`, accountID, tokenHash, reset.ExpiresAt, now)
		if err != nil {
			if r.db.Dialect.IsUniqueViolation(err) {
				return fmt.Errorf("failed to create reset: %w", ErrDuplicate)
			}
			return fmt.Errorf("failed to create reset: %w", err)
		}
		reset.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reset, nil
}

// GetByTokenHash retrieves a reset by token digest, consumed or not
func (r *PasswordResetRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error) {
	query := `
		SELECT id, account_id, token_hash, expires_at, consumed_at, created_at
		FROM password_resets
		WHERE token_hash = ?
	`
	reset := &models.PasswordReset{}
	var consumedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&reset.ID,
		&reset.AccountID,
		&reset.TokenHash,
		&reset.ExpiresAt,
		&consumedAt,
		&reset.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get password reset: %w", err)
	}
	if consumedAt.Valid {
		t := consumedAt.Time
		reset.ConsumedAt = &t
	}
	return reset, nil
}

// Redeem consumes a live reset token and sets the account's password hash in
// one transaction. It reports false when the token was unknown, expired or
// already consumed by the time the update ran.
func (r *PasswordResetRepository) Redeem(ctx context.Context, tokenHash, passwordHash string, now time.Time) (bool, error) {
	now = now.UTC()
	redeemed := false

	err := r.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE password_resets
			SET consumed_at = ?
			WHERE token_hash = ? AND consumed_at IS NULL AND expires_at > ?
		`, now, tokenHash, now)
		if err != nil {
			return fmt.Errorf("failed to consume reset: %w", err)
		}
		ok, err := affectedOne(result)
		if err != nil || !ok {
			return err
		}

		var accountID int64
		if err := tx.QueryRowContext(ctx,
			`SELECT account_id FROM password_resets WHERE token_hash = ?`, tokenHash).Scan(&accountID); err != nil {
			return fmt.Errorf("failed to load reset owner: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
			passwordHash, now, accountID); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		redeemed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return redeemed, nil
}

// DeleteStale removes resets that are expired or already consumed
func (r *PasswordResetRepository) DeleteStale(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM password_resets WHERE expires_at <= ? OR consumed_at IS NOT NULL`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale resets: %w", err)
	}
	return result.RowsAffected()
}
