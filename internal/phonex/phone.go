// Package phonex normalizes raw WhatsApp sender identifiers into the single
// canonical key used everywhere downstream (storage, sequencing, replies).
package phonex

import (
	"strings"

	"github.com/momentum-ia/momentum/internal/common"
)

// ChannelPrefix is the transport prefix Twilio puts in front of WhatsApp
// numbers, e.g. "whatsapp:+15551234567".
const ChannelPrefix = "whatsapp:"

// Canonicalize turns a raw sender identifier into its canonical form:
// the channel prefix followed by an E.164-style number with a leading "+".
// An international "00" dial prefix is rewritten to "+". The function is
// idempotent: canonicalizing an already-canonical value returns it unchanged.
//
// An empty identifier fails with common.ErrInvalidIdentifier.
func Canonicalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", common.ErrInvalidIdentifier
	}

	number := strings.TrimPrefix(s, ChannelPrefix)
	if number == "" {
		return "", common.ErrInvalidIdentifier
	}

	switch {
	case strings.HasPrefix(number, "+"):
		// already normalized
	case strings.HasPrefix(number, "00"):
		number = "+" + number[2:]
	default:
		number = "+" + number
	}

	return ChannelPrefix + number, nil
}
