package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/Payphone-Digital/accounts/pkg/mailer"
	"github.com/Payphone-Digital/accounts/pkg/metrics"
)

// Notifier delivers one message. *mailer.SMTPMailer and mailer.Disabled
// satisfy it.
type Notifier interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// TemplateRenderer is satisfied by *mailer.Renderer.
type TemplateRenderer interface {
	Render(name string, data interface{}) (string, string, error)
}

type mailData struct {
	Username  string
	Email     string
	Code      string
	Link      string
	ExpiresIn string
}

// Dispatcher builds the account emails and hands them to a Notifier. Errors
// are logged and returned, callers decide whether they matter.
type Dispatcher struct {
	notifier    Notifier
	renderer    TemplateRenderer
	frontendURL string
	expiry      time.Duration
	metrics     *metrics.Metrics
}

func NewDispatcher(notifier Notifier, renderer TemplateRenderer, frontendURL string, expiry time.Duration, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		notifier:    notifier,
		renderer:    renderer,
		frontendURL: frontendURL,
		expiry:      expiry,
		metrics:     m,
	}
}

func (d *Dispatcher) SendVerification(ctx context.Context, user *model.User, code string) error {
	return d.send(ctx, mailer.TemplateVerifyEmail, user, code,
		fmt.Sprintf("Verify your email, %s", user.Salutation()), "/verify-email")
}

func (d *Dispatcher) SendPasswordReset(ctx context.Context, user *model.User, code string) error {
	return d.send(ctx, mailer.TemplateResetPassword, user, code,
		fmt.Sprintf("Password Reset for %s", user.Salutation()), "/reset-password")
}

func (d *Dispatcher) send(ctx context.Context, template string, user *model.User, code, subject, path string) error {
	if user.Email == "" {
		logger.WarnWithContext(ctx, "User has no email, notification skipped").
			Uint("user_id", user.ID).
			String("template", template).
			Log()
		return nil
	}

	text, html, err := d.renderer.Render(template, mailData{
		Username:  user.Username,
		Email:     user.Email,
		Code:      code,
		Link:      d.link(path, code),
		ExpiresIn: humanDuration(d.expiry),
	})
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to render email").
			String("template", template).
			Err(err).
			Log()
		d.metrics.EmailSent(template, err)
		return err
	}

	err = d.notifier.Send(ctx, mailer.Message{
		To:      []string{user.Email},
		Subject: subject,
		Text:    text,
		HTML:    html,
	})
	d.metrics.EmailSent(template, err)
	return err
}

func (d *Dispatcher) link(path, code string) string {
	base := strings.TrimRight(d.frontendURL, "/")
	return base + path + "?code=" + url.QueryEscape(code)
}

func humanDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}
