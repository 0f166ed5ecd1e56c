package handlers

import (
	"time"

	"clinicbook/internal/models"
)

type TokenResponse struct {
	Token string `json:"token"`
}

type ServiceView struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type AppointmentView struct {
	ID          int64         `json:"id"`
	UserID      int64         `json:"user_id"`
	Services    []ServiceView `json:"services"`
	Date        string        `json:"date"`
	Time        string        `json:"time"`
	TotalAmount float64       `json:"total_amount"`
	CreatedAt   time.Time     `json:"created_at"`
}

type SlotView struct {
	ID   int64  `json:"id"`
	Date string `json:"date"`
	Time string `json:"time"`
}

type HealthView struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Prices go over the wire as decimal amounts
func centsToAmount(cents int64) float64 {
	return float64(cents) / 100
}

func newServiceView(s models.Service) ServiceView {
	return ServiceView{ID: s.ID, Name: s.Name, Price: centsToAmount(s.PriceCents)}
}

func newServiceViews(services []models.Service) []ServiceView {
	views := make([]ServiceView, 0, len(services))
	for _, s := range services {
		views = append(views, newServiceView(s))
	}
	return views
}

func newAppointmentView(a *models.Appointment) AppointmentView {
	return AppointmentView{
		ID:          a.ID,
		UserID:      a.AccountID,
		Services:    newServiceViews(a.Services),
		Date:        a.Date,
		Time:        a.Time,
		TotalAmount: centsToAmount(a.TotalCents),
		CreatedAt:   a.CreatedAt,
	}
}

func newAppointmentViews(appts []models.Appointment) []AppointmentView {
	views := make([]AppointmentView, 0, len(appts))
	for i := range appts {
		views = append(views, newAppointmentView(&appts[i]))
	}
	return views
}

func newSlotViews(slots []models.BookedSlot) []SlotView {
	views := make([]SlotView, 0, len(slots))
	for _, s := range slots {
		views = append(views, SlotView{ID: s.ID, Date: s.Date, Time: s.Time})
	}
	return views
}
