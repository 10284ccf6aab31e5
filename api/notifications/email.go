package notifications

import (
	"context"
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// EmailMessage is one outgoing email.
type EmailMessage struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// EmailProvider is the transport behind the dispatcher. Implementations
// exist for Elastic Email (primary) and SendGrid (fallback).
type EmailProvider interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// Dispatcher validates and sends notification emails. It never returns
// an error to the caller: every failure mode (missing API key, bad
// address, provider error) is logged and reported as false, and nothing
// is retried.
type Dispatcher struct {
	provider EmailProvider
}

// NewDispatcher creates a dispatcher over the given provider. A nil
// provider turns every send into a logged no-op, which is how a
// missing API key degrades.
func NewDispatcher(provider EmailProvider) *Dispatcher {
	return &Dispatcher{provider: provider}
}

// SendEmail sends one email, returning whether it was handed to the
// provider successfully. No retries.
func (d *Dispatcher) SendEmail(ctx context.Context, to, subject, htmlBody, textBody string) bool {
	if !validEmailAddress(to) {
		zap.S().Errorw("invalid email address, dropping email", "to", to, "subject", subject)
		return false
	}
	if d.provider == nil {
		zap.S().Warnw("email api key not configured, dropping email", "to", to, "subject", subject)
		return false
	}

	err := d.provider.Send(ctx, EmailMessage{To: to, Subject: subject, HTMLBody: htmlBody, TextBody: textBody})
	if err != nil {
		zap.S().Errorw("failed to send email", "error", err, "to", to, "subject", subject)
		return false
	}
	zap.S().Infow("email sent successfully", "to", to, "subject", subject)
	return true
}

// validEmailAddress checks the recipient address before any network
// call is made.
func validEmailAddress(address string) bool {
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return false
	}
	at := strings.LastIndex(parsed.Address, "@")
	return at > 0 && strings.Contains(parsed.Address[at:], ".")
}
