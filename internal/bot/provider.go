package bot

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest means caller-supplied input was malformed (e.g. empty
	// authorization code). Not retryable.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrTransport means the provider could not be reached (timeout, DNS, TLS).
	// The only retryable failure class.
	ErrTransport = errors.New("provider transport failure")

	// ErrMalformedResponse means the provider answered but the payload was
	// missing required fields.
	ErrMalformedResponse = errors.New("malformed provider response")
)

// ProviderRejectedError is a logical failure reported by the provider itself,
// distinct from HTTP status. Reason is the provider's error code, e.g.
// "invalid_code".
type ProviderRejectedError struct {
	Reason string
}

func (e *ProviderRejectedError) Error() string {
	return fmt.Sprintf("provider rejected request: %s", e.Reason)
}

// ExchangeResult is the token payload from a successful code exchange.
type ExchangeResult struct {
	AccessToken string
	Scope       string
	TeamID      string
	UserID      string
	AppID       string
}

// Provider is the capability contract for a chat workspace provider. Slack is
// the only implementation today; the interface exists so a second provider can
// be added without touching the linking core.
type Provider interface {
	// ExchangeCode turns a one-time authorization code into a durable credential.
	ExchangeCode(ctx context.Context, code string) (*ExchangeResult, error)

	// SendNotification posts text to a channel using the given bearer credential.
	SendNotification(ctx context.Context, channel, text, token string) error

	// OpenPrompt opens the new-task input prompt for an interaction trigger.
	OpenPrompt(ctx context.Context, triggerID, token string) error
}
