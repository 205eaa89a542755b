package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookSettings configure delivery through an HTTP email relay that accepts
// JSON payloads (transactional mail APIs, internal notification gateways).
type WebhookSettings struct {
	Enabled    bool
	URL        string
	AuthHeader string
	AuthToken  string
	From       string
	Timeout    time.Duration
	RetryCount int
}

type webhookPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	HTML    bool     `json:"html"`
}

type webhookMailer struct {
	cfg    WebhookSettings
	client *resty.Client
}

// NewWebhookMailer builds a Mailer that posts each message to cfg.URL.
func NewWebhookMailer(cfg WebhookSettings) (Mailer, error) {
	if cfg.Enabled && strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("webhook: url is required when enabled")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.AuthHeader == "" {
		cfg.AuthHeader = "Authorization"
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetHeader("Content-Type", "application/json")

	return &webhookMailer{cfg: cfg, client: client}, nil
}

func (m *webhookMailer) Send(ctx context.Context, msg Message) error {
	if !m.cfg.Enabled {
		return ErrDeliveryDisabled
	}

	from, recipients, err := envelope(msg, m.cfg.From)
	if err != nil {
		return err
	}

	req := m.client.R().
		SetContext(ctx).
		SetBody(webhookPayload{
			From:    from,
			To:      recipients,
			Subject: msg.Subject,
			Body:    msg.Body,
			HTML:    msg.HTML,
		})
	if m.cfg.AuthToken != "" {
		req.SetHeader(m.cfg.AuthHeader, m.cfg.AuthToken)
	}

	resp, err := req.Post(m.cfg.URL)
	if err != nil {
		return fmt.Errorf("webhook: send request: %w", err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook: relay responded with status %d", resp.StatusCode())
	}
	return nil
}
