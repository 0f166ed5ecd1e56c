package models

import (
	"testing"
	"time"
)

func TestPasswordResetIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: now.Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "expires exactly now",
			expiresAt: now,
			want:      true,
		},
		{
			name:      "just expired",
			expiresAt: now.Add(-1 * time.Second),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset := PasswordReset{AccountID: 1, ExpiresAt: tt.expiresAt}
			if got := reset.IsExpired(now); got != tt.want {
				t.Errorf("PasswordReset.IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPasswordResetIsConsumed(t *testing.T) {
	reset := PasswordReset{}
	if reset.IsConsumed() {
		t.Error("fresh reset should not be consumed")
	}
	at := time.Now()
	reset.ConsumedAt = &at
	if !reset.IsConsumed() {
		t.Error("reset with ConsumedAt should be consumed")
	}
}

func TestAccountProfile(t *testing.T) {
	acc := Account{
		ID:                    9,
		Name:                  "Ana",
		Email:                 "ana@example.com",
		PasswordHash:          "secret-hash",
		VerificationTokenHash: "digest",
		IsAdmin:               true,
	}

	p := acc.Profile()
	if p.ID != 9 || p.Name != "Ana" || p.Email != "ana@example.com" || !p.Admin {
		t.Errorf("Profile() = %+v", p)
	}
}

func TestSumPrices(t *testing.T) {
	tests := []struct {
		name     string
		services []Service
		want     int64
	}{
		{"none", nil, 0},
		{"one", []Service{{ID: 1, PriceCents: 4500}}, 4500},
		{"several", []Service{{ID: 1, PriceCents: 4500}, {ID: 2, PriceCents: 2550}}, 7050},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SumPrices(tt.services); got != tt.want {
				t.Errorf("SumPrices() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppointmentServiceIDs(t *testing.T) {
	a := Appointment{Services: []Service{{ID: 3}, {ID: 5}}}
	ids := a.ServiceIDs()
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 5 {
		t.Errorf("ServiceIDs() = %v", ids)
	}
}
