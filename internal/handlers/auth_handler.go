package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinicbook/internal/metrics"
	"clinicbook/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	accounts *service.AccountService
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts *service.AccountService, m *metrics.Metrics, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		metrics:  m,
		logger:   logger,
	}
}

type emailRequest struct {
	Email string `json:"email"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

// Register creates an account and sends the confirmation email
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondMessage(w, http.StatusBadRequest, ErrInvalidJSON)
		return
	}

	_, err := h.accounts.Register(r.Context(), in)
	h.metrics.AuthEvent("register", err)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to register account")
		return
	}

	respondMessage(w, http.StatusCreated, MsgAccountCreated)
}

// VerifyAccount redeems the token from the confirmation link
func (h *AuthHandler) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	err := h.accounts.VerifyAccount(r.Context(), chi.URLParam(r, "token"))
	h.metrics.AuthEvent("verify", err)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to verify account")
		return
	}

	respondMessage(w, http.StatusOK, MsgAccountConfirmed)
}

// Login returns a session token for valid credentials
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondMessage(w, http.StatusBadRequest, ErrInvalidJSON)
		return
	}

	token, err := h.accounts.Login(r.Context(), in)
	h.metrics.AuthEvent("login", err)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to log in",
			override(service.ErrAccountNotFound, http.StatusUnauthorized))
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// ForgotPassword emails a reset link
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in emailRequest
	if err := decodeJSON(w, r, &in); err != nil {
		respondMessage(w, http.StatusBadRequest, ErrInvalidJSON)
		return
	}

	err := h.accounts.RequestPasswordReset(r.Context(), in.Email)
	h.metrics.AuthEvent("reset_request", err)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to request password reset")
		return
	}

	respondMessage(w, http.StatusOK, MsgResetEmailSent)
}

// ValidateResetToken reports whether a reset link is still usable
func (h *AuthHandler) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.ValidateResetToken(r.Context(), chi.URLParam(r, "token")); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to validate reset token",
			override(service.ErrInvalidToken, http.StatusBadRequest))
		return
	}

	respondMessage(w, http.StatusOK, MsgResetTokenValid)
}

// CompleteReset sets a new password using a reset token
func (h *AuthHandler) CompleteReset(w http.ResponseWriter, r *http.Request) {
	var in passwordRequest
	if err := decodeJSON(w, r, &in); err != nil {
		respondMessage(w, http.StatusBadRequest, ErrInvalidJSON)
		return
	}

	err := h.accounts.CompleteReset(r.Context(), chi.URLParam(r, "token"), in.Password)
	h.metrics.AuthEvent("reset_complete", err)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to reset password",
			override(service.ErrInvalidToken, http.StatusBadRequest))
		return
	}

	respondMessage(w, http.StatusOK, MsgPasswordUpdated)
}

// CurrentUser returns the profile of the authenticated account
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	accountID, _ := GetAccountIDFromContext(r.Context())

	profile, err := h.accounts.CurrentUser(r.Context(), accountID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get current user")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
