package models

import (
	"fmt"
	"time"
)

// Stake types: either a fixed amount per missed day, or a single amount
// forfeited on overall failure.
const (
	StakeTypePerMissedDay  = "per_missed_day"
	StakeTypeOneTimeOnFail = "one_time_on_failure"
)

// CommitmentStatusActive is the only status this core creates or queries.
// Terminal transitions live outside the orchestration engine.
const CommitmentStatusActive = "active"

// Commitment is a user's declared goal, stake, and time window.
// At most one active commitment exists per user at any time.
type Commitment struct {
	ID                 string
	UserID             string
	GoalDescription    string
	TaskDescription    string
	StakeAmount        float64
	StakeType          string
	StartDate          string
	EndDate            string
	Schedule           map[string]any
	VerificationMethod string
	Status             string
	CreatedAt          time.Time
}

// Summary renders the human-readable recap sent back to users when they ask
// about their current goal.
func (c *Commitment) Summary() string {
	task := c.TaskDescription
	if task == "" {
		task = "Not specified"
	}
	method := c.VerificationMethod
	if method == "" {
		method = "Not specified"
	}
	return fmt.Sprintf(
		"Active Goal: %s\nTask: %s\nStake: $%.2f (%s)\nPeriod: %s to %s\nVerification: %s",
		c.GoalDescription, task, c.StakeAmount, c.StakeType, c.StartDate, c.EndDate, method,
	)
}
