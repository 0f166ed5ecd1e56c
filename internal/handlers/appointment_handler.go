package handlers

import (
	"log/slog"
	"net/http"

	"clinicbook/internal/metrics"
	"clinicbook/internal/service"
)

// AppointmentHandler handles booking requests. Every route runs behind RequireAuth.
type AppointmentHandler struct {
	appointments *service.AppointmentService
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(appointments *service.AppointmentService, m *metrics.Metrics, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		appointments: appointments,
		metrics:      m,
		logger:       logger,
	}
}

// Unknown services in a booking body are a bad request, not a missing resource
var bodyServiceNotFound = override(service.ErrServiceNotFound, http.StatusBadRequest)

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.BookingInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondMessage(w, http.StatusBadRequest, ErrInvalidJSON)
		return
	}

	actorID, _ := GetAccountIDFromContext(r.Context())
	if _, err := h.appointments.Create(r.Context(), actorID, in); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to book appointment", bodyServiceNotFound)
		return
	}

	h.metrics.AppointmentChanged(string(service.AppointmentBooked))
	respondMessage(w, http.StatusCreated, MsgAppointmentBooked)
}

// ListByDate returns the booked slots of ?date=YYYY-MM-DD
func (h *AppointmentHandler) ListByDate(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		respondMessage(w, http.StatusBadRequest, "date is required")
		return
	}

	slots, err := h.appointments.ListBookedSlots(r.Context(), date)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list booked slots")
		return
	}
	respondJSON(w, http.StatusOK, newSlotViews(slots))
}

// ListFreeTimes returns the unbooked HH:MM slots of ?date=YYYY-MM-DD
func (h *AppointmentHandler) ListFreeTimes(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		respondMessage(w, http.StatusBadRequest, "date is required")
		return
	}

	free, err := h.appointments.ListFreeTimes(r.Context(), date)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list free times")
		return
	}
	respondJSON(w, http.StatusOK, free)
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	actorID, _ := GetAccountIDFromContext(r.Context())
	appt, err := h.appointments.Get(r.Context(), actorID, id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get appointment")
		return
	}
	respondJSON(w, http.StatusOK, newAppointmentView(appt))
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var in service.BookingInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondMessage(w, http.StatusBadRequest, ErrInvalidJSON)
		return
	}

	actorID, _ := GetAccountIDFromContext(r.Context())
	if _, err := h.appointments.Update(r.Context(), actorID, id, in); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update appointment", bodyServiceNotFound)
		return
	}

	h.metrics.AppointmentChanged(string(service.AppointmentUpdated))
	respondMessage(w, http.StatusOK, MsgAppointmentSaved)
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	actorID, _ := GetAccountIDFromContext(r.Context())
	if err := h.appointments.Cancel(r.Context(), actorID, id); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to cancel appointment")
		return
	}

	h.metrics.AppointmentChanged(string(service.AppointmentCancelled))
	respondMessage(w, http.StatusOK, MsgAppointmentGone)
}

// ListForUser returns the upcoming appointments of /users/{id}
func (h *AppointmentHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	accountID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	actorID, _ := GetAccountIDFromContext(r.Context())
	appts, err := h.appointments.ListForAccount(r.Context(), actorID, accountID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list appointments")
		return
	}
	respondJSON(w, http.StatusOK, newAppointmentViews(appts))
}

func (h *AppointmentHandler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	actorID, _ := GetAccountIDFromContext(r.Context())
	appts, err := h.appointments.ListUpcoming(r.Context(), actorID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list appointments")
		return
	}
	respondJSON(w, http.StatusOK, newAppointmentViews(appts))
}
