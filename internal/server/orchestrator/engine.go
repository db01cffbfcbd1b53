// Package orchestrator is the conversation engine: it derives the user's
// lifecycle stage, routes each inbound message to the right handler, advances
// the proof-submission protocol and guarantees that every turn ends with
// exactly one outbound reply.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/momentum-ia/momentum/internal/common"
	"github.com/momentum-ia/momentum/internal/logging"
	"github.com/momentum-ia/momentum/internal/phonex"
	"github.com/momentum-ia/momentum/internal/server/messaging"
	"github.com/momentum-ia/momentum/internal/server/models"
	"github.com/momentum-ia/momentum/internal/server/oracle"
	"github.com/momentum-ia/momentum/internal/server/proofstore"
	"github.com/momentum-ia/momentum/internal/server/services"
)

const (
	apologyDatabaseMsg = "Sorry, I'm having trouble accessing your information right now. Please try again in a few minutes."
	technicalIssueMsg  = "Sorry, we hit a technical issue processing your message. Please try again."
	fallbackReplyMsg   = "Thanks for your message! How can I help you with your goals today?"
	askNameMsg         = "Welcome! I'm your accountability coach. What's your name?"
	nameSavedMsg       = "Nice to meet you, %s! Ready to set your first goal? Tell me what you want to achieve, your stake, and the dates."
	noActiveGoalMsg    = "You don't have an active goal right now. Tell me what you want to achieve and what's at stake, and I'll hold you accountable!"
	goalCreatedMsg     = "Your goal is locked in!\n\n%s\n\nI'll check in with you for proof of progress. Let's go!"
	flowUnreadableMsg  = "I couldn't read your submission. Please try sending it again."
	noProgressMsg      = "No check-ins recorded yet. Submit your first proof to get on the board!"
)

// InboundMessage is one webhook delivery, already stripped of transport
// details.
type InboundMessage struct {
	From         string
	Body         string
	MediaURL     string
	FlowResponse string
}

// TurnResult reports how a turn was handled, for logging and metrics.
type TurnResult struct {
	Status  string
	Outcome string
}

// EngineParams collects the engine's collaborators. Everything is injected
// so tests can substitute fakes.
type EngineParams struct {
	Users         *services.UserService
	Commitments   *services.CommitmentService
	Verifications *services.VerificationService
	Proofs        *services.ProofService
	Dispatcher    messaging.Dispatcher
	Planner       Planner
	Oracle        oracle.Oracle
	Archive       proofstore.Archive
	Logger        logging.Logger
	Metrics       *Metrics
}

type Engine struct {
	users         *services.UserService
	commitments   *services.CommitmentService
	verifications *services.VerificationService
	proofs        *services.ProofService
	dispatcher    messaging.Dispatcher
	planner       Planner
	oracle        oracle.Oracle
	archive       proofstore.Archive
	logger        logging.Logger
	metrics       *Metrics
	keys          *keyedMutex
	now           func() time.Time
}

func NewEngine(p EngineParams) *Engine {
	return &Engine{
		users:         p.Users,
		commitments:   p.Commitments,
		verifications: p.Verifications,
		proofs:        p.Proofs,
		dispatcher:    p.Dispatcher,
		planner:       p.Planner,
		oracle:        p.Oracle,
		archive:       p.Archive,
		logger:        p.Logger.With("module", "orchestrator"),
		metrics:       p.Metrics,
		keys:          newKeyedMutex(),
		now:           time.Now,
	}
}

// HandleTurn processes one inbound message end to end. Within a turn the
// order is fixed: validate, canonicalize, resolve status, consult the proof
// protocol, then stage routing; the reply always goes out last and exactly
// once. Turns for the same phone key run in arrival order; different keys
// run concurrently.
func (e *Engine) HandleTurn(ctx context.Context, msg InboundMessage) (*TurnResult, error) {
	if strings.TrimSpace(msg.From) == "" {
		return nil, common.ErrInvalidIdentifier
	}
	if msg.Body == "" && msg.MediaURL == "" && msg.FlowResponse == "" {
		return nil, common.ErrEmptyMessage
	}

	phone, err := phonex.Canonicalize(msg.From)
	if err != nil {
		return nil, err
	}

	unlock := e.keys.Lock(phone)
	defer unlock()

	g := newGuard(e.dispatcher, e.logger, e.metrics)

	// Every turn starts with status resolution; stage handlers only run
	// after it.
	status := e.users.Resolve(ctx, phone)
	if status.Kind == services.StatusErrorDatabaseCheck {
		e.logger.Error(ctx, "status resolution failed", "phone", phone, "error", status.Err)
		g.Send(ctx, phone, apologyDatabaseMsg)
		return e.finish(g, ctx, phone, status.String(), "apology_database"), nil
	}
	if status.Err != nil {
		// Degraded resolution (e.g. reduced user row); classification still
		// succeeded but operators need the detail.
		e.logger.Error(ctx, "status resolved in degraded mode", "phone", phone, "error", status.Err)
	}

	// A submission in progress bypasses normal stage routing entirely.
	advance, err := e.proofs.Advance(ctx, phone, msg.Body, msg.MediaURL, g)
	switch {
	case errors.Is(err, common.ErrSchemaMismatch):
		// Operators need to see this; the user falls through to normal
		// routing as if no submission were in progress.
		e.logger.Error(ctx, "proof state columns missing in storage", "error", err)
	case err != nil:
		return e.failTurn(ctx, g, phone, status.String(), err), nil
	case advance.Handled:
		if advance.Completed {
			e.metrics.CountVerification()
		}
		return e.finish(g, ctx, phone, status.String(), "proof_advance"), nil
	}

	if msg.FlowResponse != "" {
		return e.handleFlowVerification(ctx, g, phone, status.String(), msg), nil
	}

	return e.handleStage(ctx, g, phone, status.String(), msg), nil
}

// handleStage routes the message through the planner's chosen operation.
func (e *Engine) handleStage(ctx context.Context, g *guardedDispatcher, phone, status string, msg InboundMessage) *TurnResult {
	plan, err := e.planner.Plan(ctx, PlanRequest{Status: status, Message: msg.Body})
	if err != nil {
		e.logger.Error(ctx, "planner failed", "error", err)
		plan = &Plan{Op: OpReply, Reply: fallbackReplyMsg}
	}
	if err := plan.Validate(); err != nil {
		e.logger.Warn(ctx, "invalid plan", "op", string(plan.Op), "error", err)
		plan = &Plan{Op: OpReply, Reply: fallbackReplyMsg}
	}

	switch plan.Op {
	case OpAskName:
		g.Send(ctx, phone, askNameMsg)

	case OpSaveName:
		if err := e.users.UpdateName(ctx, phone, plan.Name); err != nil {
			return e.failTurn(ctx, g, phone, status, err)
		}
		g.Send(ctx, phone, fmt.Sprintf(nameSavedMsg, plan.Name))

	case OpCreateCommitment:
		c := plan.Commitment
		created, err := e.commitments.Create(ctx, phone, services.CommitmentDraft{
			GoalDescription:    c.GoalDescription,
			TaskDescription:    c.TaskDescription,
			StakeAmount:        c.StakeAmount,
			StakeType:          c.StakeType,
			StartDate:          c.StartDate,
			EndDate:            c.EndDate,
			Schedule:           c.Schedule,
			VerificationMethod: c.VerificationMethod,
		})
		if err != nil {
			if errors.Is(err, common.ErrCommitmentAlreadyActive) {
				g.Send(ctx, phone, "You already have an active goal. Finish it before starting a new one!")
				break
			}
			return e.failTurn(ctx, g, phone, status, err)
		}
		g.Send(ctx, phone, fmt.Sprintf(goalCreatedMsg, created.Summary()))

	case OpShowCommitment:
		commitment, err := e.commitments.GetActive(ctx, phone)
		if err != nil {
			if errors.Is(err, common.ErrNoActiveCommitment) {
				g.Send(ctx, phone, noActiveGoalMsg)
				break
			}
			return e.failTurn(ctx, g, phone, status, err)
		}
		g.Send(ctx, phone, commitment.Summary())

	case OpShowProgress:
		history, err := e.verifications.History(ctx, phone)
		if err != nil {
			if errors.Is(err, common.ErrNoActiveCommitment) {
				g.Send(ctx, phone, noActiveGoalMsg)
				break
			}
			return e.failTurn(ctx, g, phone, status, err)
		}
		g.Send(ctx, phone, progressSummary(history))

	case OpStartProofSubmission:
		if err := e.proofs.Start(ctx, phone, g); err != nil {
			return e.failTurn(ctx, g, phone, status, err)
		}

	case OpReply:
		g.Send(ctx, phone, plan.Reply)
	}

	return e.finish(g, ctx, phone, status, string(plan.Op))
}

// progressSummary renders the check-in recap for the active goal.
func progressSummary(history []*models.Verification) string {
	if len(history) == 0 {
		return noProgressMsg
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You've recorded %d check-in(s) so far:\n", len(history))
	for _, v := range history {
		fmt.Fprintf(&b, "\n%s — %s", v.DueDate, v.Status)
	}
	return b.String()
}

// handleFlowVerification processes a proof submitted through an interactive
// Flow: judge the embedded image, archive it, record the verification and
// reply with the oracle's feedback.
func (e *Engine) handleFlowVerification(ctx context.Context, g *guardedDispatcher, phone, status string, msg InboundMessage) *TurnResult {
	var payload struct {
		Image string `json:"image"`
	}
	if err := json.Unmarshal([]byte(msg.FlowResponse), &payload); err != nil || payload.Image == "" {
		e.logger.Warn(ctx, "unreadable flow response", "error", err)
		g.Send(ctx, phone, flowUnreadableMsg)
		return e.finish(g, ctx, phone, status, "flow_unreadable")
	}

	commitment, err := e.commitments.GetActive(ctx, phone)
	if err != nil {
		if errors.Is(err, common.ErrNoActiveCommitment) {
			g.Send(ctx, phone, noActiveGoalMsg)
			return e.finish(g, ctx, phone, status, "flow_no_goal")
		}
		return e.failTurn(ctx, g, phone, status, err)
	}

	verdict, err := e.oracle.Judge(ctx, commitment.GoalDescription, payload.Image)
	if err != nil {
		if !errors.Is(err, common.ErrOracleParse) {
			return e.failTurn(ctx, g, phone, status, err)
		}
		// Conservative fallback verdict still carries user feedback.
		e.logger.Warn(ctx, "oracle verdict unparseable", "error", err)
	}

	if verdict.Completed {
		proofURL := models.ProofURLFlowSentinel
		if e.archive != nil {
			if _, url, err := e.archive.Store(ctx, payload.Image); err != nil {
				e.logger.Error(ctx, "proof archive failed", "error", err)
			} else {
				proofURL = url
			}
		}
		if _, err := e.verifications.Record(ctx, phone, e.now().Format("2006-01-02"), proofURL, verdict.Reasoning); err != nil {
			return e.failTurn(ctx, g, phone, status, err)
		}
		e.metrics.CountVerification()
	}

	g.Send(ctx, phone, verdict.Feedback)
	return e.finish(g, ctx, phone, status, "flow_verification")
}

// failTurn is the internal-error boundary: detail goes to the log, the user
// gets a generic message, the turn still completes.
func (e *Engine) failTurn(ctx context.Context, g *guardedDispatcher, phone, status string, err error) *TurnResult {
	e.logger.Error(ctx, "turn failed", "phone", phone, "error", err)
	g.Send(ctx, phone, technicalIssueMsg)
	return e.finish(g, ctx, phone, status, "technical_issue")
}

// finish is the guard post-hook: a turn that produced no reply gets the
// fallback so the conversation never goes silent.
func (e *Engine) finish(g *guardedDispatcher, ctx context.Context, phone, status, outcome string) *TurnResult {
	if !g.Dispatched() {
		e.logger.Warn(ctx, "turn produced no reply, sending fallback", "outcome", outcome)
		g.Send(ctx, phone, fallbackReplyMsg)
	}
	e.metrics.CountTurn(outcome)
	return &TurnResult{Status: status, Outcome: outcome}
}
