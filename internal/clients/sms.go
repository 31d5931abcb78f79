package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type SMSConfig struct {
	URL      string
	APIKey   string
	SenderID string
	Timeout  time.Duration
}

// SMSClient talks to the SMS gateway over its JSON HTTP API. A nil client is
// a no-op sender, matching how the rest of the clients degrade when not
// configured.
type SMSClient struct {
	http     *http.Client
	url      string
	apiKey   string
	senderID string
}

func NewSMSClient(cfg SMSConfig) *SMSClient {
	if cfg.URL == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMSClient{
		http:     &http.Client{Timeout: timeout},
		url:      cfg.URL,
		apiKey:   cfg.APIKey,
		senderID: cfg.SenderID,
	}
}

type smsRequest struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Message string `json:"message"`
}

type smsResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Send delivers one text message. A rejected delivery is an error; callers
// that treat SMS as best-effort log and move on.
func (c *SMSClient) Send(ctx context.Context, phoneNumber, text string) error {
	if c == nil {
		return nil
	}

	body, err := json.Marshal(smsRequest{
		To:      phoneNumber,
		From:    c.senderID,
		Message: text,
	})
	if err != nil {
		return fmt.Errorf("encode sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, string(data))
	}

	var out smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// Gateways that reply with an empty body on success are accepted.
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode sms response: %w", err)
	}
	if out.Status != "" && out.Status != "accepted" && out.Status != "success" {
		return fmt.Errorf("sms rejected: %s", out.Message)
	}
	return nil
}
