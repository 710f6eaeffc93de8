package broadcast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"chatline/internal/platform/config"
)

// Provider sends a single message to one recipient through the upstream
// messaging provider.
type Provider interface {
	SendMessage(ctx context.Context, phone, body string) (providerMessageID string, err error)
}

// WhatsAppClient talks to the WhatsApp Cloud API.
type WhatsAppClient struct {
	baseURL     string
	accessToken string
	phoneID     string
	client      *http.Client
}

func NewWhatsAppClient(cfg config.ProviderConfig) *WhatsAppClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WhatsAppClient{
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		phoneID:     cfg.PhoneID,
		client:      &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (c *WhatsAppClient) SendMessage(ctx context.Context, phone, body string) (string, error) {
	payload, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "text",
		Text:             textBody{Body: body},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("provider response decode: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if result.Error != nil {
			return "", fmt.Errorf("provider error %d: %s", result.Error.Code, result.Error.Message)
		}
		return "", fmt.Errorf("provider returned HTTP %d", resp.StatusCode)
	}

	if len(result.Messages) == 0 {
		return "", fmt.Errorf("provider returned no message id")
	}
	return result.Messages[0].ID, nil
}
