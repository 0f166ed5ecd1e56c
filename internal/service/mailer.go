package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"clinicbook/internal/config"
)

// Message is a rendered email
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers rendered email
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// sesSender is the part of the SES v2 client the mailer uses
type sesSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer sends email using Amazon SES
type SESMailer struct {
	client    sesSender
	fromEmail string
	fromName  string
	logger    *slog.Logger
	debug     bool
}

// NewMailer returns an SES mailer, or a LogMailer when no sender address is configured
func NewMailer(ctx context.Context, cfg config.MailConfig, logger *slog.Logger) (Mailer, error) {
	if cfg.FromEmail == "" {
		logger.Info("email delivery disabled: mail.from_email not configured")
		return NewLogMailer(logger), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("email delivery enabled", "from", cfg.FromEmail, "region", cfg.AWSRegion)
	return NewSESMailer(sesv2.NewFromConfig(awsCfg), cfg.FromEmail, cfg.FromName, logger, cfg.Debug), nil
}

// NewSESMailer wraps an SES client
func NewSESMailer(client sesSender, fromEmail, fromName string, logger *slog.Logger, debug bool) *SESMailer {
	return &SESMailer{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
		debug:     debug,
	}
}

// Send delivers msg as a simple HTML and text message
func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	fromAddress := m.fromEmail
	if m.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(msg.HTML),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(msg.Text),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if m.debug {
		m.logger.Debug("calling SES SendEmail", "to", msg.To, "subject", msg.Subject,
			"html_bytes", len(msg.HTML), "text_bytes", len(msg.Text))
	}

	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}

	attrs := []any{"to", msg.To, "subject", msg.Subject}
	if result != nil && result.MessageId != nil {
		attrs = append(attrs, "message_id", *result.MessageId)
	}
	m.logger.Info("email sent", attrs...)
	return nil
}

// LogMailer only logs messages; used when SES is not configured
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a mailer that never delivers
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.InfoContext(ctx, "skipping email send (delivery disabled)", "to", msg.To, "subject", msg.Subject)
	m.logger.DebugContext(ctx, "email body", "to", msg.To, "text", msg.Text)
	return nil
}
