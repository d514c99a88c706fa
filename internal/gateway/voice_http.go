// internal/gateway/voice_http.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPVoiceGateway posts to a call-initiation REST endpoint. The provider
// later calls our voice-status webhook; while the leg is active it fetches
// the voice-control document telling it which audio to play.
type HTTPVoiceGateway struct {
	URL      string
	APIKey   string
	CallerID string
	// CallbackURL is where the provider posts call-status events.
	CallbackURL string
	Client      *http.Client
}

func NewHTTPVoiceGateway(url, apiKey, callerID, callbackURL string) *HTTPVoiceGateway {
	return &HTTPVoiceGateway{
		URL:         url,
		APIKey:      apiKey,
		CallerID:    callerID,
		CallbackURL: callbackURL,
		Client:      &http.Client{Timeout: 20 * time.Second},
	}
}

func (g *HTTPVoiceGateway) Initiate(ctx context.Context, to, audioURL string) (SendResult, error) {
	payload, err := json.Marshal(map[string]string{
		"from":                g.CallerID,
		"to":                  to,
		"audio_url":           audioURL,
		"status_callback_url": g.CallbackURL,
	})
	if err != nil {
		return SendResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(payload))
	if err != nil {
		return SendResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apiKey", g.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return SendResult{}, err
	}
	defer resp.Body.Close()

	var body struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return SendResult{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return SendResult{
			Accepted: false,
			Detail:   fmt.Sprintf("gateway returned %d: %s", resp.StatusCode, body.Message),
		}, nil
	}

	return SendResult{ProviderRef: body.SessionID, Accepted: true, Detail: body.Message}, nil
}

var _ VoiceGateway = (*HTTPVoiceGateway)(nil)
