// Package mail sends transactional email through SendGrid.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender delivers transactional mail. With no API key configured it becomes
// a no-op that logs instead of sending, so development setups work offline.
type Sender struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger *slog.Logger
}

// New creates a Sender. An empty apiKey disables delivery.
func New(apiKey, fromEmail, fromName string, logger *slog.Logger) *Sender {
	s := &Sender{
		from:   sgmail.NewEmail(fromName, fromEmail),
		logger: logger,
	}
	if apiKey != "" {
		s.client = sendgrid.NewSendClient(apiKey)
	}
	return s
}

// Enabled reports whether mail will actually be delivered.
func (s *Sender) Enabled() bool {
	return s.client != nil
}

// SendPasswordReset mails a password reset link.
func (s *Sender) SendPasswordReset(ctx context.Context, toEmail, toName, resetURL string) error {
	subject := "Reset your TagNest password"
	plain := fmt.Sprintf("Hi %s,\n\nSomeone requested a password reset for your TagNest account. Open the link below to choose a new password. If this wasn't you, you can ignore this email.\n\n%s\n", toName, resetURL)
	html := fmt.Sprintf(`<p>Hi %s,</p><p>Someone requested a password reset for your TagNest account. Click the link below to choose a new password. If this wasn't you, you can ignore this email.</p><p><a href="%s">Reset password</a></p>`, toName, resetURL)

	return s.send(ctx, toEmail, toName, subject, plain, html)
}

// SendVerification mails an email verification link.
func (s *Sender) SendVerification(ctx context.Context, toEmail, toName, verifyURL string) error {
	subject := "Verify your TagNest email address"
	plain := fmt.Sprintf("Hi %s,\n\nPlease confirm this email address for your TagNest account by opening the link below.\n\n%s\n", toName, verifyURL)
	html := fmt.Sprintf(`<p>Hi %s,</p><p>Please confirm this email address for your TagNest account by clicking the link below.</p><p><a href="%s">Verify email</a></p>`, toName, verifyURL)

	return s.send(ctx, toEmail, toName, subject, plain, html)
}

// SendTemporaryPassword mails the temporary password for an admin-created account.
func (s *Sender) SendTemporaryPassword(ctx context.Context, toEmail, toName, password string) error {
	subject := "Your TagNest account"
	plain := fmt.Sprintf("Hi %s,\n\nA TagNest account has been created for you. Sign in with the temporary password below and change it right away.\n\n%s\n", toName, password)
	html := fmt.Sprintf(`<p>Hi %s,</p><p>A TagNest account has been created for you. Sign in with the temporary password below and change it right away.</p><p><code>%s</code></p>`, toName, password)

	return s.send(ctx, toEmail, toName, subject, plain, html)
}

func (s *Sender) send(ctx context.Context, toEmail, toName, subject, plain, html string) error {
	if s.client == nil {
		s.logger.Info("mail delivery disabled, skipping",
			"to", toEmail,
			"subject", subject,
		)
		return nil
	}

	to := sgmail.NewEmail(toName, toEmail)
	message := sgmail.NewSingleEmail(s.from, subject, to, plain, html)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("send mail: sendgrid returned status %d", resp.StatusCode)
	}

	s.logger.Debug("mail sent",
		"to", toEmail,
		"subject", subject,
		"status", resp.StatusCode,
	)
	return nil
}
