package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SMSClient клиент HTTP-шлюза SMS / KakaoTalk уведомлений
type SMSClient struct {
	baseURL    string
	apiKey     string
	sender     string
	httpClient *http.Client
}

// NewSMSClient создает клиент шлюза; sender номер отправителя
func NewSMSClient(baseURL, apiKey, sender string, timeout time.Duration) *SMSClient {
	return &SMSClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		sender:  sender,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *SMSClient) Send(ctx context.Context, msg SMSMessage) error {
	if c.baseURL == "" {
		return fmt.Errorf("%w: sms gateway", ErrNotConfigured)
	}
	if msg.From == "" {
		msg.From = c.sender
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: marshal sms: %v", ErrSendFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrSendFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrSendFailed, resp.StatusCode, string(respBody))
	}

	return nil
}
