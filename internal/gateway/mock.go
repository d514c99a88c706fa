// internal/gateway/mock.go
package gateway

import (
	"context"
	"math/rand"

	"github.com/google/uuid"
)

// MockSMSGateway simulates a provider for local dev: 90% acceptance with a
// fresh message id per send.
type MockSMSGateway struct{}

func (g *MockSMSGateway) Send(ctx context.Context, to, message string) (SendResult, error) {
	if rand.Float64() < 0.9 {
		return SendResult{ProviderRef: uuid.NewString(), Accepted: true}, nil
	}
	return SendResult{Accepted: false, Detail: "mock gateway rejected message"}, nil
}

// MockVoiceGateway simulates call initiation with a fresh session id.
type MockVoiceGateway struct{}

func (g *MockVoiceGateway) Initiate(ctx context.Context, to, audioURL string) (SendResult, error) {
	if rand.Float64() < 0.9 {
		return SendResult{ProviderRef: uuid.NewString(), Accepted: true}, nil
	}
	return SendResult{Accepted: false, Detail: "mock gateway rejected call"}, nil
}

var _ SMSGateway = (*MockSMSGateway)(nil)
var _ VoiceGateway = (*MockVoiceGateway)(nil)
