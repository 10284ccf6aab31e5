package notifications

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendgridProvider is the fallback email transport, used when only a
// SendGrid key is configured.
type SendgridProvider struct {
	apiKey   string
	from     string
	fromName string
}

// NewSendgridProvider creates a provider for the given API key.
func NewSendgridProvider(apiKey, from, fromName string) *SendgridProvider {
	return &SendgridProvider{
		apiKey:   apiKey,
		from:     from,
		fromName: fromName,
	}
}

// Send delivers the email through the SendGrid client.
func (s *SendgridProvider) Send(ctx context.Context, msg EmailMessage) error {
	from := mail.NewEmail(s.fromName, s.from)
	to := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.TextBody, msg.HTMLBody)
	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	return nil
}
