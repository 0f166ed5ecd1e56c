package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidSessionToken covers bad signatures, wrong algorithms, malformed
// claims and expired tokens alike
var ErrInvalidSessionToken = errors.New("invalid or expired session token")

// SessionClaims are the claims carried by a session token
type SessionClaims struct {
	jwt.RegisteredClaims
}

// AccountID parses the subject claim
func (c *SessionClaims) AccountID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad subject %q", c.Subject)
	}
	return id, nil
}

// SessionTokens issues and verifies HS256 session tokens
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionTokens creates a token issuer signing with secret
func NewSessionTokens(secret string, ttl time.Duration) *SessionTokens {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock overrides the time source, for tests
func (s *SessionTokens) WithClock(now func() time.Time) *SessionTokens {
	c := *s
	c.now = now
	return &c
}

// Issue returns a signed token naming accountID as subject
func (s *SessionTokens) Issue(accountID int64) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the account id
func (s *SessionTokens) Verify(tokenString string) (int64, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	if !token.Valid {
		return 0, ErrInvalidSessionToken
	}

	id, err := claims.AccountID()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	return id, nil
}
