package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"clinicbook/internal/metrics"
	"clinicbook/internal/models"
	"clinicbook/internal/security"
	"clinicbook/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	AccountIDContextKey ContextKey = "account_id"
)

// SessionVerifier checks a bearer session token and returns its subject
type SessionVerifier interface {
	Verify(token string) (int64, error)
}

// AccountFinder loads the account behind a session
type AccountFinder interface {
	Account(ctx context.Context, id int64) (*models.Account, error)
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	sessions SessionVerifier
	accounts AccountFinder
	limiter  security.Limiter
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(sessions SessionVerifier, accounts AccountFinder, limiter security.Limiter, m *metrics.Metrics, logger *slog.Logger) *Middleware {
	return &Middleware{
		sessions: sessions,
		accounts: accounts,
		limiter:  limiter,
		metrics:  m,
		logger:   logger,
	}
}

// RequireAuth rejects requests without a valid bearer session token and
// stores the token subject in the request context
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respondWithServiceError(w, m.logger, ErrMissingCredential, "")
			return
		}

		accountID, err := m.sessions.Verify(token)
		if err != nil {
			m.logger.DebugContext(r.Context(), "rejected session token", "error", err)
			respondWithServiceError(w, m.logger, ErrInvalidOrExpiredToken, "")
			return
		}

		ctx := context.WithValue(r.Context(), AccountIDContextKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after RequireAuth
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := GetAccountIDFromContext(r.Context())
		if !ok {
			respondWithServiceError(w, m.logger, ErrMissingCredential, "")
			return
		}

		acc, err := m.accounts.Account(r.Context(), accountID)
		if errors.Is(err, service.ErrAccountNotFound) || (err == nil && !acc.IsAdmin) {
			respondMessage(w, http.StatusForbidden, service.ErrForbidden.Error())
			return
		}
		if err != nil {
			respondWithError(w, m.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to load account", err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimit limits requests per client IP. Limiter errors let the request through.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		allowed, err := m.limiter.Allow(r.Context(), ip)
		if err != nil {
			m.logger.WarnContext(r.Context(), "rate limiter unavailable", "error", err)
			allowed = true
		}
		if !allowed {
			m.logger.InfoContext(r.Context(), "rate limit exceeded", "ip", ip, "path", r.URL.Path)
			m.metrics.RateLimited(routePath(r))
			respondMessage(w, http.StatusTooManyRequests, ErrTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Logging returns a structured request logging middleware
func Logging(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", chimiddleware.GetReqID(r.Context())),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

// GetAccountIDFromContext retrieves the authenticated account id
func GetAccountIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(AccountIDContextKey).(int64)
	return id, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func routePath(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
