// Package advisor produces optional plan-change proposals from an assembled
// context packet. The engine treats proposals as advisory input only; every
// proposal still passes through the policy guardrails before it can surface.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/peakform/coach/plugin/coach/packet"
	"github.com/peakform/coach/plugin/coach/policy"
)

// Proposer turns a context packet into an optional plan proposal.
// A nil proposal with a nil error means the advisor has nothing to suggest.
type Proposer interface {
	Propose(ctx context.Context, pkt *packet.ContextPacket) (*policy.Proposal, error)
}

// Static is a deterministic proposer that reads the packet's anomaly lines.
// It serves as the fallback when no LLM advisor is configured.
type Static struct{}

var _ Proposer = (*Static)(nil)

func NewStatic() *Static {
	return &Static{}
}

func (s *Static) Propose(_ context.Context, pkt *packet.ContextPacket) (*policy.Proposal, error) {
	if pkt == nil {
		return nil, nil
	}

	var evidence []string
	for _, anomaly := range pkt.Anomalies {
		if strings.HasPrefix(anomaly, "low_protein_streak=") || strings.HasPrefix(anomaly, "workout_gap_days=") {
			evidence = append(evidence, anomaly)
		}
	}
	if len(evidence) == 0 {
		return nil, nil
	}

	summary := "Adjust this week's plan to rebuild momentum"
	return &policy.Proposal{
		Title:   "Plan adjustment",
		Message: fmt.Sprintf("Recent logs suggest the current plan is slipping (%s). A lighter week could help you get back on track.", strings.Join(evidence, ", ")),
		Prompt: &policy.PlanProposalPrompt{
			Summary:  summary,
			Evidence: evidence,
		},
		Reasons:    evidence,
		Confidence: "medium",
	}, nil
}
