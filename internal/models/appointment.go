package models

import "time"

// Service is a bookable clinic service. Prices are kept in cents.
type Service struct {
	ID         int64
	Name       string
	PriceCents int64
}

// Appointment is a booked slot for one account
type Appointment struct {
	ID         int64
	AccountID  int64
	Services   []Service
	Date       string // YYYY-MM-DD
	Time       string // HH:MM
	TotalCents int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BookedSlot is the availability view of an appointment
type BookedSlot struct {
	ID   int64
	Date string
	Time string
}

// ServiceIDs returns the ids of the appointment's services
func (a *Appointment) ServiceIDs() []int64 {
	ids := make([]int64, 0, len(a.Services))
	for _, s := range a.Services {
		ids = append(ids, s.ID)
	}
	return ids
}

// SumPrices totals the price of services in cents
func SumPrices(services []Service) int64 {
	var total int64
	for _, s := range services {
		total += s.PriceCents
	}
	return total
}
