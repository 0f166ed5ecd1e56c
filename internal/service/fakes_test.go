package service

import (
	"context"
	"sync"
	"time"

	"clinicbook/internal/models"
	"clinicbook/internal/repository"
)

type fakeAccountStore struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*models.Account
	// skipLookup hides accounts from GetByEmail to simulate a concurrent insert
	skipLookup bool
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[int64]*models.Account)}
}

func (f *fakeAccountStore) Create(_ context.Context, acc *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Email == acc.Email {
			return nil, repository.ErrDuplicate
		}
	}
	f.nextID++
	c := *acc
	c.ID = f.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	f.accounts[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeAccountStore) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.skipLookup {
		return nil, nil
	}
	for _, a := range f.accounts {
		if a.Email == email {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountStore) GetByID(_ context.Context, id int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, nil
}

func (f *fakeAccountStore) ConfirmVerification(_ context.Context, tokenHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if !a.Verified && a.VerificationTokenHash != "" && a.VerificationTokenHash == tokenHash {
			a.Verified = true
			a.VerificationTokenHash = ""
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAccountStore) SetAdmin(_ context.Context, email string, isAdmin bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Email == email {
			a.IsAdmin = isAdmin
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAccountStore) byEmail(email string) *models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Email == email {
			return a
		}
	}
	return nil
}

type fakeResetStore struct {
	mu     sync.Mutex
	nextID int64
	resets []*models.PasswordReset
	// passwords records the hash written by Redeem per account
	passwords map[int64]string
}

func newFakeResetStore() *fakeResetStore {
	return &fakeResetStore{passwords: make(map[int64]string)}
}

func (f *fakeResetStore) Replace(_ context.Context, accountID int64, tokenHash string, expiresAt time.Time) (*models.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.resets[:0]
	for _, r := range f.resets {
		if r.AccountID != accountID || r.ConsumedAt != nil {
			kept = append(kept, r)
		}
	}
	f.resets = kept
	f.nextID++
	r := &models.PasswordReset{ID: f.nextID, AccountID: accountID, TokenHash: tokenHash, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	f.resets = append(f.resets, r)
	return r, nil
}

func (f *fakeResetStore) GetByTokenHash(_ context.Context, tokenHash string) (*models.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.resets {
		if r.TokenHash == tokenHash {
			c := *r
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeResetStore) Redeem(_ context.Context, tokenHash, passwordHash string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.resets {
		if r.TokenHash == tokenHash && r.ConsumedAt == nil && now.Before(r.ExpiresAt) {
			at := now
			r.ConsumedAt = &at
			f.passwords[r.AccountID] = passwordHash
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeResetStore) DeleteStale(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	kept := f.resets[:0]
	for _, r := range f.resets {
		if r.ConsumedAt != nil || !now.Before(r.ExpiresAt) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.resets = kept
	return n, nil
}

func (f *fakeResetStore) expire(tokenHash string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.resets {
		if r.TokenHash == tokenHash {
			r.ExpiresAt = at
		}
	}
}

type sentEmail struct {
	kind  string
	to    string
	token string
	event AppointmentEvent
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeNotifier) SendVerificationEmail(_ context.Context, to, _, token string) error {
	return f.record(sentEmail{kind: "verification", to: to, token: token})
}

func (f *fakeNotifier) SendPasswordResetEmail(_ context.Context, to, _, token string) error {
	return f.record(sentEmail{kind: "reset", to: to, token: token})
}

func (f *fakeNotifier) SendAppointmentEmail(_ context.Context, to, _ string, event AppointmentEvent, _ *models.Appointment) error {
	return f.record(sentEmail{kind: "appointment", to: to, event: event})
}

func (f *fakeNotifier) record(e sentEmail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, e)
	return f.err
}

func (f *fakeNotifier) last() sentEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentEmail{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
