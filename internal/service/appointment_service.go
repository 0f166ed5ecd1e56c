package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clinicbook/internal/models"
	"clinicbook/internal/repository"
)

const (
	// FirstSlotHour and LastSlotHour bound the hourly bookable slots, inclusive
	FirstSlotHour = 10
	LastSlotHour  = 19

	MaxServicesPerAppointment = 1

	dateLayout = "2006-01-02"
)

// ServiceCatalog reads clinic services
type ServiceCatalog interface {
	List(ctx context.Context) ([]models.Service, error)
	GetByID(ctx context.Context, id int64) (*models.Service, error)
	GetByIDs(ctx context.Context, ids []int64) ([]models.Service, error)
}

// AppointmentStore persists appointments
type AppointmentStore interface {
	Create(ctx context.Context, appt *models.Appointment) (*models.Appointment, error)
	Update(ctx context.Context, appt *models.Appointment) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*models.Appointment, error)
	ListBookedSlots(ctx context.Context, date string) ([]models.BookedSlot, error)
	ListForAccount(ctx context.Context, accountID int64, fromDate string) ([]models.Appointment, error)
	ListFrom(ctx context.Context, fromDate string) ([]models.Appointment, error)
}

// AccountLookup loads accounts by id
type AccountLookup interface {
	GetByID(ctx context.Context, id int64) (*models.Account, error)
}

// AppointmentNotifier emails appointment changes
type AppointmentNotifier interface {
	SendAppointmentEmail(ctx context.Context, toEmail, toName string, event AppointmentEvent, appt *models.Appointment) error
}

// BookingInput is the payload for creating or changing an appointment
type BookingInput struct {
	Services []int64 `json:"services"`
	Date     string  `json:"date"`
	Time     string  `json:"time"`
}

// AvailableTimes lists the bookable slots of a day as HH:MM
func AvailableTimes() []string {
	times := make([]string, 0, LastSlotHour-FirstSlotHour+1)
	for h := FirstSlotHour; h <= LastSlotHour; h++ {
		times = append(times, fmt.Sprintf("%02d:00", h))
	}
	return times
}

// CatalogService exposes the service catalogue
type CatalogService struct {
	catalog ServiceCatalog
}

// NewCatalogService creates a new catalogue service
func NewCatalogService(catalog ServiceCatalog) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// List returns every service
func (s *CatalogService) List(ctx context.Context) ([]models.Service, error) {
	services, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

// Get returns one service
func (s *CatalogService) Get(ctx context.Context, id int64) (*models.Service, error) {
	svc, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	if svc == nil {
		return nil, ErrServiceNotFound
	}
	return svc, nil
}

// AppointmentService books, changes and cancels appointments
type AppointmentService struct {
	appts    AppointmentStore
	catalog  ServiceCatalog
	accounts AccountLookup
	notifier AppointmentNotifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(appts AppointmentStore, catalog ServiceCatalog, accounts AccountLookup, notifier AppointmentNotifier, logger *slog.Logger) *AppointmentService {
	return &AppointmentService{
		appts:    appts,
		catalog:  catalog,
		accounts: accounts,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Create books a slot for the acting account
func (s *AppointmentService) Create(ctx context.Context, actorID int64, in BookingInput) (*models.Appointment, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	appt, err := s.buildAppointment(ctx, in)
	if err != nil {
		return nil, err
	}
	appt.AccountID = actor.ID

	created, err := s.appts.Create(ctx, appt)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrSlotTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.logger.InfoContext(ctx, "appointment booked", "appointment_id", created.ID, "account_id", actor.ID,
		"date", created.Date, "time", created.Time)
	s.notify(ctx, actor, AppointmentBooked, created)
	return created, nil
}

// ListBookedSlots returns the taken slots on date
func (s *AppointmentService) ListBookedSlots(ctx context.Context, date string) ([]models.BookedSlot, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, ErrInvalidSlot
	}
	slots, err := s.appts.ListBookedSlots(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list booked slots: %w", err)
	}
	return slots, nil
}

// ListFreeTimes returns the slots of date that nobody has booked yet
func (s *AppointmentService) ListFreeTimes(ctx context.Context, date string) ([]string, error) {
	booked, err := s.ListBookedSlots(ctx, date)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(booked))
	for _, b := range booked {
		taken[b.Time] = true
	}
	free := make([]string, 0, LastSlotHour-FirstSlotHour+1)
	for _, t := range AvailableTimes() {
		if !taken[t] {
			free = append(free, t)
		}
	}
	return free, nil
}

// Get returns an appointment owned by the actor, or any appointment for admins
func (s *AppointmentService) Get(ctx context.Context, actorID, id int64) (*models.Appointment, error) {
	_, appt, err := s.authorized(ctx, actorID, id)
	return appt, err
}

// Update moves an appointment to another slot or service
func (s *AppointmentService) Update(ctx context.Context, actorID, id int64, in BookingInput) (*models.Appointment, error) {
	_, existing, err := s.authorized(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	appt, err := s.buildAppointment(ctx, in)
	if err != nil {
		return nil, err
	}
	appt.ID = existing.ID
	appt.AccountID = existing.AccountID
	appt.CreatedAt = existing.CreatedAt

	found, err := s.appts.Update(ctx, appt)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrSlotTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	if !found {
		return nil, ErrAppointmentNotFound
	}

	s.logger.InfoContext(ctx, "appointment updated", "appointment_id", appt.ID, "actor_id", actorID)
	s.notifyOwner(ctx, appt.AccountID, AppointmentUpdated, appt)
	return appt, nil
}

// Cancel deletes an appointment
func (s *AppointmentService) Cancel(ctx context.Context, actorID, id int64) error {
	_, existing, err := s.authorized(ctx, actorID, id)
	if err != nil {
		return err
	}

	found, err := s.appts.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}
	if !found {
		return ErrAppointmentNotFound
	}

	s.logger.InfoContext(ctx, "appointment cancelled", "appointment_id", id, "actor_id", actorID)
	s.notifyOwner(ctx, existing.AccountID, AppointmentCancelled, existing)
	return nil
}

// ListForAccount returns upcoming appointments of accountID; only the account
// itself or an admin may ask
func (s *AppointmentService) ListForAccount(ctx context.Context, actorID, accountID int64) ([]models.Appointment, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.ID != accountID && !actor.IsAdmin {
		return nil, ErrForbidden
	}

	appts, err := s.appts.ListForAccount(ctx, accountID, s.today())
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

// ListUpcoming returns every upcoming appointment; admins only
func (s *AppointmentService) ListUpcoming(ctx context.Context, actorID int64) ([]models.Appointment, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}

	appts, err := s.appts.ListFrom(ctx, s.today())
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

// buildAppointment validates the booking and prices it from the catalogue
func (s *AppointmentService) buildAppointment(ctx context.Context, in BookingInput) (*models.Appointment, error) {
	if len(in.Services) == 0 {
		return nil, ErrNoServices
	}
	if len(in.Services) > MaxServicesPerAppointment {
		return nil, ErrTooManyServices
	}

	date, err := time.ParseInLocation(dateLayout, strings.TrimSpace(in.Date), s.now().Location())
	if err != nil {
		return nil, ErrInvalidSlot
	}
	if date.Format(dateLayout) < s.today() {
		return nil, ErrPastDate
	}

	slot := strings.TrimSpace(in.Time)
	if !validSlot(slot) {
		return nil, ErrInvalidSlot
	}

	services, err := s.catalog.GetByIDs(ctx, in.Services)
	if err != nil {
		return nil, fmt.Errorf("failed to load services: %w", err)
	}
	if len(services) != len(in.Services) {
		return nil, ErrServiceNotFound
	}

	return &models.Appointment{
		Services:   services,
		Date:       date.Format(dateLayout),
		Time:       slot,
		TotalCents: models.SumPrices(services),
	}, nil
}

func (s *AppointmentService) authorized(ctx context.Context, actorID, id int64) (*models.Account, *models.Appointment, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}

	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	if appt == nil {
		return nil, nil, ErrAppointmentNotFound
	}
	if appt.AccountID != actor.ID && !actor.IsAdmin {
		return nil, nil, ErrForbidden
	}
	return actor, appt, nil
}

func (s *AppointmentService) actor(ctx context.Context, id int64) (*models.Account, error) {
	acc, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if acc == nil {
		return nil, ErrAccountNotFound
	}
	return acc, nil
}

func (s *AppointmentService) notifyOwner(ctx context.Context, ownerID int64, event AppointmentEvent, appt *models.Appointment) {
	owner, err := s.accounts.GetByID(ctx, ownerID)
	if err != nil || owner == nil {
		s.logger.WarnContext(ctx, "cannot notify appointment owner", "account_id", ownerID, "error", err)
		return
	}
	s.notify(ctx, owner, event, appt)
}

func (s *AppointmentService) notify(ctx context.Context, owner *models.Account, event AppointmentEvent, appt *models.Appointment) {
	if err := s.notifier.SendAppointmentEmail(ctx, owner.Email, owner.Name, event, appt); err != nil {
		s.logger.WarnContext(ctx, "failed to send appointment email", "appointment_id", appt.ID,
			"event", string(event), "error", err)
	}
}

func (s *AppointmentService) today() string {
	return s.now().Format(dateLayout)
}

func validSlot(hhmm string) bool {
	t, err := time.Parse("15:04", hhmm)
	if err != nil || t.Format("15:04") != hhmm {
		return false
	}
	return t.Minute() == 0 && t.Hour() >= FirstSlotHour && t.Hour() <= LastSlotHour
}
