package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"clinicbook/internal/service"
	"clinicbook/internal/validation"
)

// Auth Guard failures
var (
	ErrMissingCredential     = errors.New("unauthorized access")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
)

type messageResponse struct {
	Msg string `json:"msg"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, messageResponse{Msg: msg})
}

// respondWithError writes {"msg": userMsg}. Server-side detail is logged
// only when err is set.
func respondWithError(w http.ResponseWriter, logger *slog.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		if status >= http.StatusInternalServerError {
			logger.Error(logMsg, "error", err)
		} else {
			logger.Debug(logMsg, "error", err)
		}
	}
	respondMessage(w, status, userMsg)
}

// errorStatus maps domain errors to a status and client message. Handlers
// override the status where a route answers differently.
func errorStatus(err error) (int, string) {
	var verr validation.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, service.ErrDuplicateAccount),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrExpiredToken),
		errors.Is(err, service.ErrInvalidSlot),
		errors.Is(err, service.ErrPastDate),
		errors.Is(err, service.ErrNoServices),
		errors.Is(err, service.ErrTooManyServices):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrAccountNotVerified),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, ErrMissingCredential):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, ErrInvalidOrExpiredToken):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrServiceNotFound),
		errors.Is(err, service.ErrAppointmentNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrSlotTaken):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrNotificationFailed):
		// the wrapped transport error names the recipient; it is logged, never sent
		return http.StatusInternalServerError, service.ErrNotificationFailed.Error()
	default:
		return http.StatusInternalServerError, ErrInternalServerError
	}
}

// respondWithServiceError maps err through errorStatus; override, when
// non-zero, replaces the mapped status for errors it matches.
func respondWithServiceError(w http.ResponseWriter, logger *slog.Logger, err error, logMsg string, overrides ...statusOverride) {
	status, msg := errorStatus(err)
	for _, o := range overrides {
		if errors.Is(err, o.err) {
			status = o.status
			break
		}
	}
	if status >= http.StatusInternalServerError {
		respondWithError(w, logger, status, msg, logMsg, err)
		return
	}
	respondMessage(w, status, msg)
}

type statusOverride struct {
	err    error
	status int
}

func override(err error, status int) statusOverride {
	return statusOverride{err: err, status: status}
}
