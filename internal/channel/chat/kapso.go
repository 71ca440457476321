package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const kapsoBaseURL = "https://api.kapso.ai/meta/whatsapp/v24.0"

// KapsoTransport sends WhatsApp messages via the Kapso (Meta Cloud) API.
type KapsoTransport struct {
	APIKey        string
	PhoneNumberID string
	BaseURL       string
	HTTPClient    *http.Client
}

// NewKapsoTransport creates a Kapso transport with a bounded HTTP timeout.
func NewKapsoTransport(apiKey, phoneNumberID string, timeout time.Duration) *KapsoTransport {
	return &KapsoTransport{
		APIKey:        apiKey,
		PhoneNumberID: phoneNumberID,
		BaseURL:       kapsoBaseURL,
		HTTPClient:    newHTTPClient(timeout),
	}
}

type kapsoText struct {
	Body string `json:"body"`
}

type kapsoSendRequest struct {
	MessagingProduct string    `json:"messaging_product"`
	RecipientType    string    `json:"recipient_type"`
	To               string    `json:"to"`
	Type             string    `json:"type"`
	Text             kapsoText `json:"text"`
}

type kapsoSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendText sends a text message to the given phone number.
func (k *KapsoTransport) SendText(ctx context.Context, to, body string) (string, error) {
	payload, err := json.Marshal(kapsoSendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             kapsoText{Body: body},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", strings.TrimRight(k.BaseURL, "/"), k.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", k.APIKey)

	client := k.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", &APIError{Provider: "kapso", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result kapsoSendResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(result.Messages) == 0 {
		return "", nil
	}
	return result.Messages[0].ID, nil
}
