package service

import "errors"

// Account lifecycle
var (
	ErrDuplicateAccount   = errors.New("an account with that email already exists")
	ErrWeakPassword       = errors.New("password is too short")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountNotVerified = errors.New("account has not been verified")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrNotificationFailed = errors.New("failed to send notification")
	ErrForbidden          = errors.New("forbidden")
)

// Appointments
var (
	ErrServiceNotFound     = errors.New("service not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotTaken           = errors.New("that time slot is already booked")
	ErrInvalidSlot         = errors.New("invalid date or time slot")
	ErrPastDate            = errors.New("appointments cannot be booked in the past")
	ErrNoServices          = errors.New("select a service")
	ErrTooManyServices     = errors.New("too many services selected")
)
