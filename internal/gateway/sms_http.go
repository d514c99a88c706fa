// internal/gateway/sms_http.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPSMSGateway posts to a Termii-style REST endpoint.
type HTTPSMSGateway struct {
	URL      string
	APIKey   string
	SenderID string
	Client   *http.Client
}

func NewHTTPSMSGateway(url, apiKey, senderID string) *HTTPSMSGateway {
	return &HTTPSMSGateway{
		URL:      url,
		APIKey:   apiKey,
		SenderID: senderID,
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *HTTPSMSGateway) Send(ctx context.Context, to, message string) (SendResult, error) {
	payload, err := json.Marshal(map[string]string{
		"api_key": g.APIKey,
		"from":    g.SenderID,
		"to":      to,
		"sms":     message,
		"type":    "plain",
		"channel": "generic",
	})
	if err != nil {
		return SendResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(payload))
	if err != nil {
		return SendResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return SendResult{}, err
	}
	defer resp.Body.Close()

	var body struct {
		MessageID string `json:"message_id"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return SendResult{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Provider rejected this recipient; not a transport error.
		return SendResult{
			Accepted: false,
			Detail:   fmt.Sprintf("gateway returned %d: %s", resp.StatusCode, body.Message),
		}, nil
	}

	return SendResult{ProviderRef: body.MessageID, Accepted: true, Detail: body.Message}, nil
}

var _ SMSGateway = (*HTTPSMSGateway)(nil)
