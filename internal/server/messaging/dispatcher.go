// Package messaging is the single egress point for user-visible messages.
// Every successful conversation turn ends with exactly one dispatch here.
package messaging

import "context"

// Receipt acknowledges an accepted outbound message.
type Receipt struct {
	SID string
}

// Dispatcher sends WhatsApp messages to users. Implementations must be safe
// for concurrent use; the orchestration engine shares one instance across
// turns.
type Dispatcher interface {
	// Send delivers a plain text message.
	Send(ctx context.Context, to string, body string) (*Receipt, error)

	// SendFlow delivers an interactive Flow template identified by its
	// content SID, with the given call-to-action label.
	SendFlow(ctx context.Context, to string, contentSID string, ctaText string) (*Receipt, error)
}
