package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// Mailer sends report emails through a plain SMTP relay. Relay host and
// sender address come from environment configuration (MAIL_SENDER,
// SMTP_SERVER) with viper-provided defaults.
type Mailer struct {
	sender string
	server string
	logger *slog.Logger
}

// NewMailer creates a new Mailer instance
func NewMailer(sender, server string, logger *slog.Logger) *Mailer {
	return &Mailer{
		sender: sender,
		server: server,
		logger: logger,
	}
}

// Send delivers subject/body to a single recipient. The relay is dialed
// once, with no retries.
func (m *Mailer) Send(ctx context.Context, recipient, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.sender); err != nil {
		return fmt.Errorf("invalid sender address %q: %w", m.sender, err)
	}
	if err := msg.To(recipient); err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", recipient, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(m.server,
		mail.WithPort(25),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	m.logger.Debug(fmt.Sprintf("Sending email to %s via %s", recipient, m.server))
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
