// Package mailer renders and delivers transactional email.
package mailer

import (
	"context"
	"fmt"

	"github.com/agency-cms-api/internal/config"
	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// Message is a rendered email ready for delivery
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Sender delivers rendered messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type smtpSender struct {
	client   *mail.Client
	from     string
	fromName string
}

// NewSender creates an SMTP sender, or a sender that only logs when no host is configured
func NewSender(cfg config.MailConfig, log zerolog.Logger) (Sender, error) {
	if !cfg.Enabled() {
		log.Warn().Msg("SMTP host not set, emails will only be logged")
		return &logSender{log: log.With().Str("component", "mailer").Logger()}, nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return &smtpSender{client: client, from: cfg.From, fromName: cfg.FromName}, nil
}

func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.FromFormat(s.fromName, s.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.AddToFormat(msg.ToName, msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	return s.client.DialAndSendWithContext(ctx, m)
}

type logSender struct {
	log zerolog.Logger
}

func (s *logSender) Send(_ context.Context, msg Message) error {
	s.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Int("bytes", len(msg.HTML)).Msg("Email not sent (SMTP disabled)")
	return nil
}
