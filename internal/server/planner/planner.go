// Package planner turns a user message plus lifecycle status into one
// orchestration operation. The reasoning lives in an LLM; everything it
// returns is validated against the closed operation set before the engine
// acts on it.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/momentum-ia/momentum/internal/logging"
	"github.com/momentum-ia/momentum/internal/server/orchestrator"
)

const systemPrompt = `You are Momentum, a WhatsApp accountability coach. Users declare goals with a financial stake and submit proof of progress.

For each turn you receive the user's lifecycle status and their message. Respond with exactly ONE JSON object choosing a single operation:

{"op": "ask_name"}
  When status is new_user and you don't know their name yet.
{"op": "save_name", "name": "<their name>"}
  When a new_user tells you their name.
{"op": "create_commitment", "commitment": {"goal_description": "...", "task_description": "...", "stake_amount": 25.0, "stake_type": "per_missed_day" or "one_time_on_failure", "start_date": "YYYY-MM-DD", "end_date": "YYYY-MM-DD", "verification_method": "..."}}
  When status is existing_no_goal and the user has given you a goal, a stake and dates.
{"op": "show_commitment"}
  When the user asks about their current goal.
{"op": "show_progress"}
  When status is existing_active_goal and the user asks how they are doing or what they have submitted so far.
{"op": "start_proof_submission"}
  When status is existing_active_goal and the user says they completed their task and wants to prove it.
{"op": "reply", "reply": "<coaching message>"}
  For everything else: motivate, clarify missing goal details, answer questions.

Statuses: new_user, existing_no_goal:<name>, existing_active_goal:<name>.
Output only the JSON object, no prose.`

const fallbackReply = "Thanks for your message! How can I help you with your goals today?"

// OpenAIPlanner implements orchestrator.Planner on an OpenAI chat model.
type OpenAIPlanner struct {
	llm    llms.Model
	logger logging.Logger
}

func NewOpenAIPlanner(model, apiKey string, logger logging.Logger) (*OpenAIPlanner, error) {
	llm, err := openai.New(openai.WithModel(model), openai.WithToken(apiKey))
	if err != nil {
		return nil, fmt.Errorf("planner init error: %w", err)
	}
	return newPlanner(llm, logger), nil
}

func newPlanner(llm llms.Model, logger logging.Logger) *OpenAIPlanner {
	return &OpenAIPlanner{llm: llm, logger: logger.With("module", "planner")}
}

// Plan asks the model for one operation. Unparseable or invalid answers fall
// back to a safe reply so the turn always completes; only transport-level
// failures propagate.
func (p *OpenAIPlanner) Plan(ctx context.Context, req orchestrator.PlanRequest) (*orchestrator.Plan, error) {
	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman,
			fmt.Sprintf("User status: %s\nMessage: %s", req.Status, req.Message)),
	}

	resp, err := p.llm.GenerateContent(ctx, content, llms.WithTemperature(0.2))
	if err != nil {
		return nil, fmt.Errorf("planner call error: %w", err)
	}
	if len(resp.Choices) == 0 {
		p.logger.Warn(ctx, "planner returned no choices")
		return p.fallback(), nil
	}

	plan, err := parsePlan(resp.Choices[0].Content)
	if err != nil {
		p.logger.Warn(ctx, "unparseable plan, falling back to reply", "error", err)
		return p.fallback(), nil
	}
	if err := plan.Validate(); err != nil {
		p.logger.Warn(ctx, "invalid plan, falling back to reply", "op", string(plan.Op), "error", err)
		return p.fallback(), nil
	}

	return plan, nil
}

func (p *OpenAIPlanner) fallback() *orchestrator.Plan {
	return &orchestrator.Plan{Op: orchestrator.OpReply, Reply: fallbackReply}
}

func parsePlan(raw string) (*orchestrator.Plan, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	plan := &orchestrator.Plan{}
	if err := json.Unmarshal([]byte(s), plan); err != nil {
		return nil, fmt.Errorf("plan decode error: %w", err)
	}
	return plan, nil
}
