// Package common defines shared constants and sentinel errors used across
// the Momentum server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal         = errors.New("internal error")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Identity / inbound message validation.
	ErrInvalidIdentifier = errors.New("invalid sender identifier")
	ErrEmptyMessage      = errors.New("empty message")

	// Domain errors.
	ErrUserNotFound            = errors.New("user not found")
	ErrNoActiveCommitment      = errors.New("no active commitment")
	ErrCommitmentAlreadyActive = errors.New("commitment already active")

	// Storage schema errors. Raised when expected proof-submission columns
	// are absent so operators see a real schema problem instead of the bot
	// silently treating every user as having no submission in progress.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// Outbound messaging errors.
	ErrDeliveryFailure = errors.New("delivery failure")

	// Verification oracle errors (verdict not parseable).
	ErrOracleParse = errors.New("oracle verdict not parseable")

	// Auth errors (invalid or malformed admin token).
	ErrInvalidToken = errors.New("invalid token")
)
