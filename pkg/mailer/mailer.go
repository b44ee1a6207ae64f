package mailer

import (
	"context"
	"fmt"

	"github.com/Payphone-Digital/accounts/config"
	"github.com/Payphone-Digital/accounts/pkg/circuit"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"gopkg.in/gomail.v2"
)

type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Sender is the part of *gomail.Dialer the mailer uses.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer delivers messages through an SMTP relay behind a circuit
// breaker.
type SMTPMailer struct {
	sender  Sender
	from    string
	breaker *circuit.Breaker
}

func NewSMTPMailer(cfg config.SMTPConfig, breaker *circuit.Breaker) *SMTPMailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	// implicit TLS on the submissions port, STARTTLS everywhere else
	dialer.SSL = cfg.UseTLS && cfg.Port == 465
	return NewMailer(dialer, cfg.From, breaker)
}

func NewMailer(sender Sender, from string, breaker *circuit.Breaker) *SMTPMailer {
	if breaker == nil {
		breaker = circuit.NewBreaker("smtp", circuit.DefaultConfig())
	}
	return &SMTPMailer{sender: sender, from: from, breaker: breaker}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("mailer: message %q has no recipient", msg.Subject)
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}

	err := m.breaker.Execute(ctx, func(context.Context) error {
		return m.sender.DialAndSend(gm)
	})
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to send email").
			String("subject", msg.Subject).
			Int("recipients", len(msg.To)).
			Err(err).
			Log()
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.InfoWithContext(ctx, "Email sent").
		String("subject", msg.Subject).
		Int("recipients", len(msg.To)).
		Log()
	return nil
}

// Breaker exposes the breaker for health reporting.
func (m *SMTPMailer) Breaker() *circuit.Breaker {
	return m.breaker
}

// Disabled stands in when no SMTP user is configured. Messages are dropped.
type Disabled struct{}

func (Disabled) Send(ctx context.Context, msg Message) error {
	logger.DebugWithContext(ctx, "Email delivery disabled, message dropped").
		String("subject", msg.Subject).
		Log()
	return nil
}
