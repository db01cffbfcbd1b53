package models

import "time"

// Proof-submission states persisted on the user row. The protocol is a
// two-state machine: no submission in progress, or waiting for a photo.
const (
	ProofStateNone          = ""
	ProofStateAwaitingPhoto = "awaiting_proof_photo"
)

// User is a person talking to the bot, identified solely by the canonical
// phone key. Name stays empty until onboarding completes.
type User struct {
	ID         string
	PhoneKey   string
	Name       string
	ProofState string
	ProofData  map[string]any
	CreatedAt  time.Time
}

// Onboarded reports whether the user has finished basic setup (has a name).
func (u *User) Onboarded() bool {
	return u.Name != ""
}
