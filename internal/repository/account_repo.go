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

// AccountRepository handles database operations for accounts
type AccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, name, email, password_hash, COALESCE(verification_token_hash, ''), verified, is_admin, created_at, updated_at`

// Create inserts a new account. A clashing email yields ErrDuplicate.
func (r *AccountRepository) Create(ctx context.Context, acc *models.Account) (*models.Account, error) {
	now := time.Now().UTC()
	query := `
		INSERT INTO accounts (name, email, password_hash, verification_token_hash, verified, is_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		acc.Name, acc.Email, acc.PasswordHash, nullString(acc.VerificationTokenHash),
		acc.Verified, acc.IsAdmin, now, now)
	if err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create account: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	created := *acc
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

// GetByEmail retrieves an account by email address
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// ConfirmVerification marks the unverified account holding tokenHash as verified
// and clears the token in a single statement. It reports false when no account matched.
func (r *AccountRepository) ConfirmVerification(ctx context.Context, tokenHash string) (bool, error) {
	query := `
		UPDATE accounts
		SET verified = ?, verification_token_hash = NULL, updated_at = ?
		WHERE verification_token_hash = ? AND verified = ?
	`
	result, err := r.db.ExecContext(ctx, query, true, time.Now().UTC(), tokenHash, false)
	if err != nil {
		return false, fmt.Errorf("failed to confirm verification: %w", err)
	}
	return affectedOne(result)
}

// SetAdmin grants or revokes the admin role by email
func (r *AccountRepository) SetAdmin(ctx context.Context, email string, isAdmin bool) (bool, error) {
	query := `UPDATE accounts SET is_admin = ?, updated_at = ? WHERE email = ?`
	result, err := r.db.ExecContext(ctx, query, isAdmin, time.Now().UTC(), email)
	if err != nil {
		return false, fmt.Errorf("failed to update admin flag: %w", err)
	}
	return affectedOne(result)
}

func (r *AccountRepository) scanOne(row *sql.Row) (*models.Account, error) {
	acc := &models.Account{}
	err := row.Scan(
		&acc.ID,
		&acc.Name,
		&acc.Email,
		&acc.PasswordHash,
		&acc.VerificationTokenHash,
		&acc.Verified,
		&acc.IsAdmin,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func affectedOne(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
