package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultElasticBaseURL = "https://api.elasticemail.com/v2"

// ElasticEmailProvider sends transactional email through the Elastic
// Email HTTP API using form-encoded parameters.
type ElasticEmailProvider struct {
	apiKey   string
	from     string
	fromName string
	baseURL  string
	client   *http.Client
}

// NewElasticEmailProvider creates a provider for the given API key.
func NewElasticEmailProvider(apiKey, from, fromName string) *ElasticEmailProvider {
	return &ElasticEmailProvider{
		apiKey:   apiKey,
		from:     from,
		fromName: fromName,
		baseURL:  defaultElasticBaseURL,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type elasticResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Send posts the email to /email/send.
func (e *ElasticEmailProvider) Send(ctx context.Context, msg EmailMessage) error {
	form := url.Values{}
	form.Set("apikey", e.apiKey)
	form.Set("to", msg.To)
	form.Set("from", e.from)
	form.Set("fromName", e.fromName)
	form.Set("subject", msg.Subject)
	form.Set("bodyHtml", msg.HTMLBody)
	form.Set("bodyText", msg.TextBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/email/send", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach elastic email api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("elastic email api returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read elastic email response: %w", err)
	}
	var parsed elasticResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to parse elastic email response: %w", err)
	}
	if !parsed.Success {
		return fmt.Errorf("elastic email api error: %s", parsed.Error)
	}
	return nil
}
