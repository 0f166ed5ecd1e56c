package security

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokens_RoundTrip(t *testing.T) {
	tokens := NewSessionTokens("secret", time.Hour)

	signed, err := tokens.Issue(42)
	require.NoError(t, err)

	id, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestSessionTokens_Claims(t *testing.T) {
	issued := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	tokens := NewSessionTokens("secret", time.Hour).WithClock(func() time.Time { return issued })

	signed, err := tokens.Issue(7)
	require.NoError(t, err)

	claims := &SessionClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(signed, claims)
	require.NoError(t, err)

	assert.Equal(t, "7", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, issued.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, issued.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestSessionTokens_Expired(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	signed, err := NewSessionTokens("secret", time.Hour).
		WithClock(func() time.Time { return issued }).
		Issue(1)
	require.NoError(t, err)

	_, err = NewSessionTokens("secret", time.Hour).Verify(signed)
	assert.True(t, errors.Is(err, ErrInvalidSessionToken), "got %v", err)
}

func TestSessionTokens_Rejects(t *testing.T) {
	good, err := NewSessionTokens("secret", time.Hour).Issue(1)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "abc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", mustIssue(t, "other-secret")},
		{"alg none", unsigned},
		{"missing expiry", noExpiry},
		{"non-numeric subject", badSubject},
		{"garbage", "not.a.token"},
		{"tampered", good + "x"},
	}

	verifier := NewSessionTokens("secret", time.Hour)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token)
			assert.True(t, errors.Is(err, ErrInvalidSessionToken), "got %v", err)
		})
	}
}

func mustIssue(t *testing.T, secret string) string {
	t.Helper()
	s, err := NewSessionTokens(secret, time.Hour).Issue(1)
	require.NoError(t, err)
	return s
}
