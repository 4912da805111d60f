package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultHTTPTimeout = 10 * time.Second

// SMSService delivers text messages through an HTTP gateway.
type SMSService struct {
	gatewayURL string
	apiKey     string
	client     *http.Client
}

func NewSMSService(gatewayURL, apiKey string) *SMSService {
	return &SMSService{
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (s *SMSService) Configured() bool {
	return s.gatewayURL != ""
}

type smsMessage struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// Send posts one message to the gateway. Any non-2xx reply is an error.
func (s *SMSService) Send(ctx context.Context, phone, text string) error {
	body, err := json.Marshal(smsMessage{To: phone, Message: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
