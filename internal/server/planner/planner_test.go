package planner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/momentum-ia/momentum/internal/logging"
	"github.com/momentum-ia/momentum/internal/server/orchestrator"
)

type fakeModel struct {
	content  string
	err      error
	lastMsgs []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.lastMsgs = messages
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.content}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return f.content, f.err
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func TestPlan_ParsesOperation(t *testing.T) {
	m := &fakeModel{content: `{"op": "save_name", "name": "Alex"}`}
	p := newPlanner(m, testLogger())

	plan, err := p.Plan(context.Background(), orchestrator.PlanRequest{
		Status:  "new_user",
		Message: "I'm Alex",
	})
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if plan.Op != orchestrator.OpSaveName || plan.Name != "Alex" {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	if len(m.lastMsgs) != 2 {
		t.Fatalf("expected system + user message, got %d", len(m.lastMsgs))
	}
}

func TestPlan_ParsesFencedCommitment(t *testing.T) {
	m := &fakeModel{content: "```json\n{\"op\": \"create_commitment\", \"commitment\": {\"goal_description\": \"Exercise daily\", \"stake_amount\": 25, \"start_date\": \"2024-01-15\", \"end_date\": \"2024-02-15\"}}\n```"}
	p := newPlanner(m, testLogger())

	plan, err := p.Plan(context.Background(), orchestrator.PlanRequest{
		Status:  "existing_no_goal:Alex",
		Message: "exercise daily, $25, jan 15 to feb 15",
	})
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if plan.Op != orchestrator.OpCreateCommitment {
		t.Fatalf("unexpected op: %q", plan.Op)
	}
	if plan.Commitment.GoalDescription != "Exercise daily" || plan.Commitment.StakeAmount != 25 {
		t.Fatalf("unexpected commitment: %+v", plan.Commitment)
	}
}

func TestPlan_UnparseableFallsBackToReply(t *testing.T) {
	m := &fakeModel{content: "Sure, I'll save their name!"}
	p := newPlanner(m, testLogger())

	plan, err := p.Plan(context.Background(), orchestrator.PlanRequest{Status: "new_user", Message: "hi"})
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if plan.Op != orchestrator.OpReply || plan.Reply == "" {
		t.Fatalf("expected safe reply fallback, got %+v", plan)
	}
}

func TestPlan_InvalidOperationFallsBack(t *testing.T) {
	m := &fakeModel{content: `{"op": "delete_user"}`}
	p := newPlanner(m, testLogger())

	plan, err := p.Plan(context.Background(), orchestrator.PlanRequest{Status: "new_user", Message: "hi"})
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if plan.Op != orchestrator.OpReply {
		t.Fatalf("expected fallback, got %+v", plan)
	}
}

func TestPlan_TransportErrorPropagates(t *testing.T) {
	m := &fakeModel{err: errors.New("rate limited")}
	p := newPlanner(m, testLogger())

	_, err := p.Plan(context.Background(), orchestrator.PlanRequest{Status: "new_user", Message: "hi"})
	if err == nil {
		t.Fatalf("expected transport error")
	}
}
