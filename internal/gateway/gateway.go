// internal/gateway/gateway.go
package gateway

import "context"

// SendResult is the gateway's immediate answer. Accepted means the provider
// took the message for asynchronous delivery; the final outcome arrives later
// through the webhook. ProviderRef is the correlation id (message id for SMS,
// call-session id for voice) when the provider returned one.
type SendResult struct {
	ProviderRef string
	Accepted    bool
	Detail      string
}

// SMSGateway wraps the provider's send call behind a synchronous interface so
// workers never see provider-specific response shapes.
type SMSGateway interface {
	Send(ctx context.Context, to, message string) (SendResult, error)
}

// VoiceGateway initiates an outbound call that will play the given audio URL.
type VoiceGateway interface {
	Initiate(ctx context.Context, to, audioURL string) (SendResult, error)
}
