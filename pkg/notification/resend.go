package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/medisync/frontdesk/pkg/config"
	"github.com/medisync/frontdesk/pkg/logger"
)

// ResendClient sends transactional email through the Resend HTTP API.
// It implements interfaces.EmailSender.
type ResendClient struct {
	apiKey   string
	endpoint string
	from     string
	client   *http.Client
	logger   *logger.Logger
}

// resendRequest is the POST /emails payload
type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// NewResendClient creates a new Resend email client
func NewResendClient(cfg *config.EmailConfig, log *logger.Logger) *ResendClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ResendClient{
		apiKey:   cfg.APIKey,
		endpoint: cfg.Endpoint,
		from:     cfg.From,
		client:   &http.Client{Timeout: timeout},
		logger:   log,
	}
}

// Send delivers a single email. The error is returned for the caller to
// log; assignment notifications deliberately never fail the workflow.
func (c *ResendClient) Send(ctx context.Context, to, subject, htmlBody string) error {
	payload := resendRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("email API returned %d: %s", resp.StatusCode, string(respBody))
	}

	c.logger.Infof("Email sent to %s with subject: %s", to, subject)
	return nil
}
