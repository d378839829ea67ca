package advisor

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/peakform/coach/plugin/coach/packet"
	"github.com/peakform/coach/plugin/coach/policy"
)

const advisorSystemPrompt = `You are a fitness coaching advisor. You receive a compact
context packet describing a user's goals, constraints, behavior patterns and anomalies.
Decide whether a plan change is worth proposing today. Respond with JSON only:
{"propose": bool, "title": string, "message": string, "summary": string,
 "evidence": [string], "confidence": number between 0 and 1}.
Set propose to false unless the packet shows a sustained problem.`

// OpenAIConfig holds configuration for the LLM-backed proposer.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// RequestsPerMinute bounds outbound calls. Zero means 6/min.
	RequestsPerMinute int
}

// OpenAI proposes plan changes via a chat completion call. On any failure it
// falls back to the deterministic Static proposer so a decision cycle never
// blocks on the network.
type OpenAI struct {
	client   *openai.Client
	model    string
	limiter  *rate.Limiter
	fallback *Static
}

var _ Proposer = (*OpenAI)(nil)

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 6
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = baseURL

	return &OpenAI{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    model,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		fallback: NewStatic(),
	}
}

type proposalPayload struct {
	Propose    bool     `json:"propose"`
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	Summary    string   `json:"summary"`
	Evidence   []string `json:"evidence"`
	Confidence float64  `json:"confidence"`
}

func (p *OpenAI) Propose(ctx context.Context, pkt *packet.ContextPacket) (*policy.Proposal, error) {
	if pkt == nil {
		return nil, nil
	}
	if !p.limiter.Allow() {
		slog.Debug("advisor rate limited, using static fallback")
		return p.fallback.Propose(ctx, pkt)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       p.model,
		MaxTokens:   300,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: advisorSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: pkt.Summary,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Warn("advisor request failed, using static fallback", "error", err)
		return p.fallback.Propose(ctx, pkt)
	}
	if len(resp.Choices) == 0 {
		return p.fallback.Propose(ctx, pkt)
	}

	payload, err := parsePayload(resp.Choices[0].Message.Content)
	if err != nil {
		slog.Warn("advisor response unparseable, using static fallback", "error", err)
		return p.fallback.Propose(ctx, pkt)
	}
	if !payload.Propose {
		return nil, nil
	}

	return &policy.Proposal{
		Title:   payload.Title,
		Message: payload.Message,
		Prompt: &policy.PlanProposalPrompt{
			Summary:  payload.Summary,
			Evidence: payload.Evidence,
		},
		Reasons:    payload.Evidence,
		Confidence: confidenceLabel(payload.Confidence),
	}, nil
}

func confidenceLabel(c float64) string {
	switch {
	case c >= 0.7:
		return "high"
	case c >= 0.4:
		return "medium"
	default:
		return "low"
	}
}

func parsePayload(content string) (*proposalPayload, error) {
	content = strings.TrimSpace(content)
	// Some models wrap JSON in a code fence despite response_format.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	payload := &proposalPayload{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode advisor payload")
	}
	if payload.Propose && payload.Summary == "" {
		return nil, errors.New("proposal missing summary")
	}
	return payload, nil
}
