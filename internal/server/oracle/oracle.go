// Package oracle judges proof photos against the user's goal. The judgment
// itself is delegated to a vision-capable LLM; this core only defines the
// verdict contract and makes unparseable answers explicit.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/momentum-ia/momentum/internal/common"
	"github.com/momentum-ia/momentum/internal/logging"
)

// Verdict is the structured outcome of judging one proof image.
type Verdict struct {
	Completed  bool    `json:"completed"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Feedback   string  `json:"feedback"`
}

// Oracle renders a verdict on a base64-encoded proof image.
type Oracle interface {
	Judge(ctx context.Context, goalDescription string, imageB64 string) (*Verdict, error)
}

const judgePrompt = `Analyze this image to determine if the user has completed their goal: %q

You are an accountability coach reviewing proof of goal completion. Be encouraging but honest.

Respond with a JSON object containing:
- completed: boolean (true if goal appears completed based on image)
- confidence: float between 0-1 (how confident you are in your assessment)
- reasoning: string (brief explanation of your decision)
- feedback: string (motivational feedback for the user, congratulatory if completed, encouraging if not)

Be specific about what you see in the image that supports your decision.`

// OpenAIOracle implements Oracle on top of an OpenAI vision model.
type OpenAIOracle struct {
	llm    llms.Model
	logger logging.Logger
}

// NewOpenAIOracle builds an oracle using the given model name and API key.
func NewOpenAIOracle(model, apiKey string, logger logging.Logger) (*OpenAIOracle, error) {
	llm, err := openai.New(openai.WithModel(model), openai.WithToken(apiKey))
	if err != nil {
		return nil, fmt.Errorf("oracle init error: %w", err)
	}
	return newOracle(llm, logger), nil
}

func newOracle(llm llms.Model, logger logging.Logger) *OpenAIOracle {
	return &OpenAIOracle{llm: llm, logger: logger.With("module", "oracle")}
}

// Judge sends the image and goal to the model and parses the verdict.
// Unparseable model output yields a conservative verdict together with
// common.ErrOracleParse so callers can still reply while operators see the
// failure.
func (o *OpenAIOracle) Judge(ctx context.Context, goalDescription string, imageB64 string) (*Verdict, error) {
	content := []llms.MessageContent{
		{
			Role: schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(fmt.Sprintf(judgePrompt, goalDescription)),
				llms.ImageURLPart("data:image/jpeg;base64," + imageB64),
			},
		},
	}

	resp, err := o.llm.GenerateContent(ctx, content, llms.WithTemperature(0.1))
	if err != nil {
		return nil, fmt.Errorf("oracle call error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fallbackVerdict(), common.ErrOracleParse
	}

	verdict, err := parseVerdict(resp.Choices[0].Content)
	if err != nil {
		o.logger.Warn(ctx, "unparseable oracle verdict", "error", err)
		return fallbackVerdict(), common.ErrOracleParse
	}

	return verdict, nil
}

func parseVerdict(raw string) (*Verdict, error) {
	s := strings.TrimSpace(raw)
	// Models occasionally wrap JSON in markdown fences.
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	v := &Verdict{}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return nil, fmt.Errorf("verdict decode error: %w", err)
	}
	return v, nil
}

func fallbackVerdict() *Verdict {
	return &Verdict{
		Completed:  false,
		Confidence: 0.5,
		Reasoning:  "Unable to properly analyze the image",
		Feedback:   "I had trouble analyzing your image. Please try submitting it again or contact support.",
	}
}
