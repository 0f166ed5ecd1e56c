package handlers

const (
	ErrInvalidJSON         = "Invalid request body"
	ErrInternalServerError = "Internal server error"
	ErrTooManyRequests     = "Too many requests, try again later"
	ErrInvalidID           = "Invalid id"

	MsgAccountCreated    = "Account created, check your email to confirm it"
	MsgAccountConfirmed  = "Account confirmed"
	MsgResetEmailSent    = "We have sent you an email with instructions"
	MsgResetTokenValid   = "Valid token"
	MsgPasswordUpdated   = "Password updated"
	MsgAppointmentBooked = "Appointment booked"
	MsgAppointmentSaved  = "Appointment updated"
	MsgAppointmentGone   = "Appointment cancelled"

	maxBodyBytes = 1 << 20
)
