package models

import "time"

// VerificationStatusOnTime is the default status for recorded verifications.
// The recorder does not compare due dates against the commitment schedule.
const VerificationStatusOnTime = "completed_on_time"

// ProofURLFlowSentinel marks verifications whose proof arrived through a
// WhatsApp Flow and could not be archived to object storage.
const ProofURLFlowSentinel = "flow_verification"

// Verification is a recorded proof submission tied to a due date. Rows are
// immutable once created; multi-day commitments accumulate many of them.
type Verification struct {
	ID            string
	CommitmentID  string
	DueDate       string
	Status        string
	ProofURL      string
	Justification string
	VerifiedAt    time.Time
}
