package service

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"strings"
	texttemplate "text/template"
	"time"

	"clinicbook/internal/models"
)

// AppointmentEvent names what happened to an appointment in a notification
type AppointmentEvent string

const (
	AppointmentBooked    AppointmentEvent = "booked"
	AppointmentUpdated   AppointmentEvent = "updated"
	AppointmentCancelled AppointmentEvent = "cancelled"
)

// EmailService renders account and appointment emails and hands them to a Mailer
type EmailService struct {
	mailer      Mailer
	frontendURL string
	resetTTL    time.Duration
	logger      *slog.Logger
}

// NewEmailService creates a new email service
func NewEmailService(mailer Mailer, frontendURL string, resetTTL time.Duration, logger *slog.Logger) *EmailService {
	return &EmailService{
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		resetTTL:    resetTTL,
		logger:      logger,
	}
}

type emailData struct {
	Name      string
	Link      string
	ExpiresIn string
	Event     AppointmentEvent
	Date      string
	Time      string
	Services  []string
	Total     string
}

// SendVerificationEmail sends the account confirmation link
func (s *EmailService) SendVerificationEmail(ctx context.Context, toEmail, toName, token string) error {
	data := emailData{Name: toName, Link: s.link("confirm-account", token)}
	return s.send(ctx, toEmail, "Confirm your account", "verification", data)
}

// SendPasswordResetEmail sends a password reset link
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, token string) error {
	data := emailData{Name: toName, Link: s.link("forgot-password", token), ExpiresIn: humanDuration(s.resetTTL)}
	return s.send(ctx, toEmail, "Reset your password", "reset", data)
}

// SendAppointmentEmail tells the account owner about a booking change
func (s *EmailService) SendAppointmentEmail(ctx context.Context, toEmail, toName string, event AppointmentEvent, appt *models.Appointment) error {
	names := make([]string, 0, len(appt.Services))
	for _, svc := range appt.Services {
		names = append(names, svc.Name)
	}
	data := emailData{
		Name:     toName,
		Event:    event,
		Date:     appt.Date,
		Time:     appt.Time,
		Services: names,
		Total:    FormatCents(appt.TotalCents),
		Link:     s.frontendURL + "/appointments",
	}
	subject := fmt.Sprintf("Your appointment has been %s", event)
	return s.send(ctx, toEmail, subject, "appointment", data)
}

func (s *EmailService) link(action, token string) string {
	return fmt.Sprintf("%s/auth/%s/%s", s.frontendURL, action, token)
}

func (s *EmailService) send(ctx context.Context, to, subject, name string, data emailData) error {
	var html, text bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, name, data); err != nil {
		return fmt.Errorf("failed to render %s email: %w", name, err)
	}
	if err := textTemplates.ExecuteTemplate(&text, name, data); err != nil {
		return fmt.Errorf("failed to render %s email: %w", name, err)
	}

	s.logger.DebugContext(ctx, "sending email", "template", name, "to", to)
	return s.mailer.Send(ctx, Message{
		To:      to,
		Subject: subject,
		HTML:    html.String(),
		Text:    text.String(),
	})
}

// FormatCents renders an amount in cents as a decimal string
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	default:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
}

const emailStyle = `
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #2a9d8f; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #2a9d8f; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>`

var htmlTemplates = htmltemplate.Must(htmltemplate.New("emails").Parse(`
{{define "layout-start"}}<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">` + emailStyle + `
</head>
<body>
	<div class="container">{{end}}

{{define "layout-end"}}
		<div class="footer">
			<p>This is an automated email from the clinic. Please do not reply.</p>
		</div>
	</div>
</body>
</html>{{end}}

{{define "verification"}}{{template "layout-start"}}
		<div class="header"><h1>Confirm your account</h1></div>
		<div class="content">
			<p>Hi {{.Name}},</p>
			<p>Your account is almost ready. Confirm your email address to start booking appointments.</p>
			<p style="text-align: center;"><a href="{{.Link}}" class="button">Confirm account</a></p>
			<p>Or copy and paste this link into your browser:</p>
			<p style="word-break: break-all; font-size: 12px; color: #666;">{{.Link}}</p>
			<p>If you did not create this account, you can ignore this message.</p>
		</div>{{template "layout-end"}}{{end}}

{{define "reset"}}{{template "layout-start"}}
		<div class="header"><h1>Password reset request</h1></div>
		<div class="content">
			<p>Hi {{.Name}},</p>
			<p>We received a request to reset your password.</p>
			<p style="text-align: center;"><a href="{{.Link}}" class="button">Reset password</a></p>
			<p>Or copy and paste this link into your browser:</p>
			<p style="word-break: break-all; font-size: 12px; color: #666;">{{.Link}}</p>
			{{if .ExpiresIn}}<p><strong>This link will expire in {{.ExpiresIn}}.</strong></p>{{end}}
			<p>If you didn't request a password reset, you can safely ignore this email.</p>
		</div>{{template "layout-end"}}{{end}}

{{define "appointment"}}{{template "layout-start"}}
		<div class="header"><h1>Appointment {{.Event}}</h1></div>
		<div class="content">
			<p>Hi {{.Name}},</p>
			<p>Your appointment on <strong>{{.Date}}</strong> at <strong>{{.Time}}</strong> has been {{.Event}}.</p>
			{{if .Services}}<ul>{{range .Services}}<li>{{.}}</li>{{end}}</ul>{{end}}
			<p>Total: {{.Total}}</p>
			<p style="text-align: center;"><a href="{{.Link}}" class="button">My appointments</a></p>
		</div>{{template "layout-end"}}{{end}}
`))

var textTemplates = texttemplate.Must(texttemplate.New("emails").Parse(`
{{define "footer"}}
---
This is an automated email from the clinic. Please do not reply.
{{end}}

{{define "verification"}}Hi {{.Name}},

Your account is almost ready. Confirm your email address to start booking appointments:
{{.Link}}

If you did not create this account, you can ignore this message.
{{template "footer"}}{{end}}

{{define "reset"}}Hi {{.Name}},

We received a request to reset your password. Use the link below to choose a new one:
{{.Link}}
{{if .ExpiresIn}}
This link will expire in {{.ExpiresIn}}.
{{end}}
If you didn't request a password reset, you can safely ignore this email.
{{template "footer"}}{{end}}

{{define "appointment"}}Hi {{.Name}},

Your appointment on {{.Date}} at {{.Time}} has been {{.Event}}.
{{range .Services}}
- {{.}}{{end}}

Total: {{.Total}}

Manage your appointments: {{.Link}}
{{template "footer"}}{{end}}
`))
