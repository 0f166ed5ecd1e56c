package security

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	password := "testPassword123"

	hash, err := h.Hash(password)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "" || hash == password {
		t.Fatalf("Hash() returned %q", hash)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() = %q, want bcrypt hash", hash)
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"correct password", password, true},
		{"wrong password", "wrongPassword", false},
		{"empty password", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := h.Compare(hash, tt.password)
			if err != nil {
				t.Fatalf("Compare() error = %v", err)
			}
			if ok != tt.want {
				t.Errorf("Compare() = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	if _, err := h.Compare("not-a-hash", "password"); err == nil {
		t.Error("Compare() with malformed hash should return an error")
	}
}

func TestNewPasswordHasher_CostBounds(t *testing.T) {
	tests := []struct {
		cost int
		want int
	}{
		{0, bcrypt.DefaultCost},
		{bcrypt.MaxCost + 1, bcrypt.DefaultCost},
		{bcrypt.MinCost, bcrypt.MinCost},
		{12, 12},
	}
	for _, tt := range tests {
		if got := NewPasswordHasher(tt.cost).cost; got != tt.want {
			t.Errorf("NewPasswordHasher(%d).cost = %d, want %d", tt.cost, got, tt.want)
		}
	}
}

func TestNewOpaqueToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tok, err := NewOpaqueToken()
		if err != nil {
			t.Fatalf("NewOpaqueToken() error = %v", err)
		}
		if len(tok) != 64 {
			t.Errorf("token length = %d, want 64", len(tok))
		}
		if seen[tok] {
			t.Fatalf("duplicate token generated: %s", tok)
		}
		seen[tok] = true
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("abc")
	if a != HashToken("abc") {
		t.Error("HashToken() is not deterministic")
	}
	if a == HashToken("abd") {
		t.Error("HashToken() collides on different input")
	}
	// sha256("abc")
	if a != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("HashToken(abc) = %s", a)
	}
}
