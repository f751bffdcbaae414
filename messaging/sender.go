// Package messaging talks to the WhatsApp providers that deliver outbound
// messages. Every call is a single attempt; callers decide what a failure means.
package messaging

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when provider credentials are missing.
var ErrNotConfigured = errors.New("messaging provider not configured")

// Sender delivers one text message to one phone number.
type Sender interface {
	Name() string
	// CheckConfig reports ErrNotConfigured when the sender cannot work at all.
	CheckConfig() error
	// Send returns the provider's message identifier on success.
	Send(ctx context.Context, phone, text string) (string, error)
}

// SendError carries a non-2xx provider response.
type SendError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
}
