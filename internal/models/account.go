package models

import "time"

// Account is a registered patient or staff login
type Account struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	// VerificationTokenHash is empty once the email address is confirmed
	VerificationTokenHash string
	Verified              bool
	IsAdmin               bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Profile is the public projection of an account
type Profile struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Admin bool   `json:"admin"`
}

// Profile returns the fields safe to hand back to clients
func (a *Account) Profile() Profile {
	return Profile{ID: a.ID, Name: a.Name, Email: a.Email, Admin: a.IsAdmin}
}

// PasswordReset is an outstanding or spent password reset request
type PasswordReset struct {
	ID         int64
	AccountID  int64
	TokenHash  string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// IsExpired checks if the reset has passed its expiry at now
func (r *PasswordReset) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// IsConsumed reports whether the reset token was already redeemed
func (r *PasswordReset) IsConsumed() bool {
	return r.ConsumedAt != nil
}
