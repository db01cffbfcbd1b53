package orchestrator

import (
	"context"
	"fmt"
)

// The closed set of operations a turn may execute. The planner chooses one;
// dispatch over the set is exhaustive and inputs are validated before any
// handler runs.
type OpKind string

const (
	OpAskName              OpKind = "ask_name"
	OpSaveName             OpKind = "save_name"
	OpCreateCommitment     OpKind = "create_commitment"
	OpShowCommitment       OpKind = "show_commitment"
	OpShowProgress         OpKind = "show_progress"
	OpStartProofSubmission OpKind = "start_proof_submission"
	OpReply                OpKind = "reply"
)

// CommitmentParams are the goal-setting inputs extracted from conversation.
type CommitmentParams struct {
	GoalDescription    string         `json:"goal_description"`
	TaskDescription    string         `json:"task_description,omitempty"`
	StakeAmount        float64        `json:"stake_amount"`
	StakeType          string         `json:"stake_type,omitempty"`
	StartDate          string         `json:"start_date"`
	EndDate            string         `json:"end_date"`
	Schedule           map[string]any `json:"schedule,omitempty"`
	VerificationMethod string         `json:"verification_method,omitempty"`
}

// Plan is one tagged operation with its parameters.
type Plan struct {
	Op         OpKind            `json:"op"`
	Reply      string            `json:"reply,omitempty"`
	Name       string            `json:"name,omitempty"`
	Commitment *CommitmentParams `json:"commitment,omitempty"`
}

// Validate checks that the operation is known and its required parameters are
// present.
func (p *Plan) Validate() error {
	switch p.Op {
	case OpAskName, OpShowCommitment, OpShowProgress, OpStartProofSubmission:
		return nil
	case OpSaveName:
		if p.Name == "" {
			return fmt.Errorf("save_name requires a name")
		}
		return nil
	case OpCreateCommitment:
		if p.Commitment == nil {
			return fmt.Errorf("create_commitment requires commitment parameters")
		}
		if p.Commitment.GoalDescription == "" {
			return fmt.Errorf("create_commitment requires a goal description")
		}
		if p.Commitment.StartDate == "" || p.Commitment.EndDate == "" {
			return fmt.Errorf("create_commitment requires start and end dates")
		}
		return nil
	case OpReply:
		if p.Reply == "" {
			return fmt.Errorf("reply requires a body")
		}
		return nil
	default:
		return fmt.Errorf("unknown operation %q", p.Op)
	}
}

// PlanRequest is what the planner sees for one turn: the resolved lifecycle
// status and the user's message.
type PlanRequest struct {
	Status  string
	Message string
}

// Planner decides which operation handles the current turn. Implementations
// are injected; the reasoning inside is a black box to the engine.
type Planner interface {
	Plan(ctx context.Context, req PlanRequest) (*Plan, error)
}
